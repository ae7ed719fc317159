package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlegis/billbot/internal/models"
)

type fakeStore struct {
	chunks []models.ChunkRecord
}

func (f *fakeStore) Store(ctx context.Context, records []models.ChunkRecord) error {
	f.chunks = append(f.chunks, records...)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, query string, limit int) ([]models.ChunkRecord, error) {
	if limit > len(f.chunks) {
		limit = len(f.chunks)
	}
	return f.chunks[:limit], nil
}

func (f *fakeStore) RecentBills(ctx context.Context, limit int) ([]models.BillSummary, error) {
	return []models.BillSummary{{SourceFile: "SB1.pdf", Subtitle: "TEST", Sponsor: "Senator A", DateFiled: "2025-01-15"}}, nil
}

func (f *fakeStore) Stats(ctx context.Context) (models.BillStats, error) {
	return models.BillStats{TotalBills: 1, LatestFiledDate: "2025-01-15"}, nil
}

func (f *fakeStore) Close() {}

type fakeCompleter struct {
	lastPrompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	f.lastPrompt = prompt
	return "SB1 amends election law.", nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeCompleter) {
	t.Helper()

	store := &fakeStore{chunks: []models.ChunkRecord{
		{Chunk: "SB1 amends election law", SourceFile: "SB1.pdf", DateFiled: "2025-01-15", Sponsor: "Senator A"},
	}}
	completer := &fakeCompleter{}

	s := New(Config{Model: "mistral-large2"}, store, completer, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/bills/recent", s.handleRecentBills)
	return httptest.NewServer(mux), completer
}

func TestWebSocketQuestion(t *testing.T) {
	server, completer := newTestServer(t)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	err = conn.WriteJSON(Message{Type: "question", Content: "What does SB1 change?"})
	require.NoError(t, err)

	var reply Message
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "response", reply.Type)
	assert.Equal(t, "SB1 amends election law.", reply.Content)

	assert.Contains(t, completer.lastPrompt, "What does SB1 change?")
	assert.Contains(t, completer.lastPrompt, "SB1 amends election law")
	assert.Contains(t, completer.lastPrompt, "Total Bills Filed: 1")
}

func TestWebSocketPlainText(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// A non-JSON frame is treated as a bare question.
	err = conn.WriteMessage(websocket.TextMessage, []byte("what bills were filed?"))
	require.NoError(t, err)

	var reply Message
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "response", reply.Type)
	assert.NotEmpty(t, reply.Content)
}

func TestRecentBillsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/bills/recent")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
