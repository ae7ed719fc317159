package llm

import (
	"fmt"
	"strings"

	"github.com/arlegis/billbot/internal/models"
)

const billURLFormat = "https://arkleg.state.ar.us/Home/FTPDocument?path=%%2FBills%%2F2025R%%2FPublic%%2F%s.pdf"

// PromptData is everything the prompt builder folds into one request.
type PromptData struct {
	Question string
	Stats    models.BillStats
	Chunks   []models.ChunkRecord
	History  []models.ChatMessage
}

// BillURL returns the public PDF location for a bill name like "SB1".
func BillURL(billName string) string {
	return fmt.Sprintf(billURLFormat, billName)
}

// FormatBillReference renders a source file as a markdown link so answers
// can cite the bill directly.
func FormatBillReference(sourceFile string) string {
	name := strings.TrimSuffix(sourceFile, ".pdf")
	return fmt.Sprintf("[%s](%s)", name, BillURL(name))
}

// HistoryWindow keeps the n most recent messages.
func HistoryWindow(messages []models.ChatMessage, n int) []models.ChatMessage {
	if n <= 0 || len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

// FormatContext renders retrieved chunks as the context block of the
// prompt, one entry per chunk with its bill reference and metadata header.
func FormatContext(chunks []models.ChunkRecord) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, fmt.Sprintf(
			"From %s (Filed: %s, Sponsor: %s):\n%s\n",
			FormatBillReference(c.SourceFile), c.DateFiled, c.Sponsor, c.Chunk))
	}
	return strings.Join(parts, "\n---\n")
}

// BuildPrompt assembles the full instruction prompt: scope guidelines,
// current bill statistics, chat history, retrieved context, and the
// question.
func BuildPrompt(data PromptData) string {
	var history strings.Builder
	for _, msg := range data.History {
		history.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
	}

	return fmt.Sprintf(`[INST]
You are a helpful AI assistant specifically focused on Arkansas legislative bills filed for the 2025 session. Your purpose is to help users understand and navigate these bills.

Current Bill Statistics:
- Total Bills Filed: %d
- Latest Filing Date: %s

IMPORTANT RESPONSE GUIDELINES:
1. ONLY answer questions about Arkansas legislative bills for the 2025 session
2. If a user asks about bills from other states, federal legislation, past Arkansas sessions, or any non-legislative topics, explain that the topic is outside your scope
3. For valid questions, use the context provided between <context> tags and chat history between <chat_history> tags
4. Never say "according to the provided context" or similar phrases
5. For questions about bill counts or statistics, use the Current Bill Statistics provided above
6. If you can't find information about a specific bill in the context, say "I don't have information about that specific bill in my current database."
7. When referring to bills, use the markdown link format provided in the context. For example: [SB1](URL)

<chat_history>
%s
</chat_history>
<context>
%s
</context>
<question>
%s
</question>
[/INST]
Answer: `, data.Stats.TotalBills, data.Stats.LatestFiledDate, history.String(), FormatContext(data.Chunks), data.Question)
}
