package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/arlegis/billbot/internal/models"
	"github.com/arlegis/billbot/internal/types"
	"github.com/arlegis/billbot/pkg/llm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

type Config struct {
	Model           string
	RetrievedChunks int
	HistorySize     int
	Streaming       bool
}

// WSServer bridges the chat pipeline to a WebSocket so a web UI can talk
// to it. Retrieval and generation run against whichever backend the
// caller wires in.
type WSServer struct {
	config    Config
	store     types.ChunkStore
	completer types.Completer
	engine    *llm.ChatEngine // set in local mode only; enables streaming
}

func New(config Config, store types.ChunkStore, completer types.Completer, engine *llm.ChatEngine) *WSServer {
	if config.RetrievedChunks == 0 {
		config.RetrievedChunks = 5
	}
	if config.HistorySize == 0 {
		config.HistorySize = 10
	}

	return &WSServer{
		config:    config,
		store:     store,
		completer: completer,
		engine:    engine,
	}
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var history []models.ChatMessage

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			// Plain text is accepted as a bare question.
			msg = Message{Type: "question", Content: string(message)}
		}

		history = s.handleMessage(r.Context(), conn, msg, history)
	}
}

func (s *WSServer) handleMessage(ctx context.Context, conn *websocket.Conn, msg Message, history []models.ChatMessage) []models.ChatMessage {
	question := msg.Content
	if question == "" {
		return history
	}

	chunks, err := s.store.Search(ctx, question, s.config.RetrievedChunks)
	if err != nil {
		s.sendMessage(conn, "error", err.Error())
		return history
	}

	stats, err := s.store.Stats(ctx)
	if err != nil {
		s.sendMessage(conn, "error", err.Error())
		return history
	}

	prompt := llm.BuildPrompt(llm.PromptData{
		Question: question,
		Stats:    stats,
		Chunks:   chunks,
		History:  history,
	})

	var answer string
	if s.config.Streaming && s.engine != nil {
		stream, err := s.engine.CompleteStream(ctx, prompt)
		if err != nil {
			s.sendMessage(conn, "error", err.Error())
			return history
		}
		for chunk := range stream {
			s.sendMessage(conn, "stream", chunk)
			answer += chunk
		}
		s.sendMessage(conn, "done", "")
	} else {
		answer, err = s.completer.Complete(ctx, s.config.Model, prompt)
		if err != nil {
			s.sendMessage(conn, "error", err.Error())
			return history
		}
		s.sendMessage(conn, "response", answer)
	}

	history = append(history,
		models.ChatMessage{Role: "user", Content: question},
		models.ChatMessage{Role: "assistant", Content: answer})

	return llm.HistoryWindow(history, s.config.HistorySize)
}

func (s *WSServer) handleRecentBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.store.RecentBills(r.Context(), 5)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(bills); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func (s *WSServer) sendMessage(conn *websocket.Conn, msgType string, content string) {
	msg := Message{
		Type:    msgType,
		Content: content,
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// ListenAndServe exposes the chat bridge on /ws plus a health check and a
// recent-bills listing for the UI sidebar.
func (s *WSServer) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/bills/recent", s.handleRecentBills)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	log.Printf("Starting WebSocket server on %s", addr)
	return http.ListenAndServe(addr, mux)
}
