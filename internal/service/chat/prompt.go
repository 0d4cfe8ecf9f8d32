package chat

import (
	"strings"

	"docuchat/internal/models"
	"docuchat/internal/vectorindex"
)

const systemInstruction = "Use the following pieces of context to answer the users question. " +
	"Be direct and don't reply with 'based on the context'."

// buildUserPrompt renders conversation history, retrieved passages and the
// new question into a single prompt body.
func buildUserPrompt(history []models.Message, passages []vectorindex.Passage, question string) string {
	var b strings.Builder

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range history {
			if m.IsUserMessage {
				b.WriteString("User: ")
			} else {
				b.WriteString("Assistant: ")
			}
			b.WriteString(m.Text)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	if len(passages) > 0 {
		b.WriteString("Context:\n")
		for i, p := range passages {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(p.PageContent)
		}
		b.WriteString("\n\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
