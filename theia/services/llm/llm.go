// theia/services/llm/llm.go
package llm

import (
	"theia/theia/utils/types"
)

// Message is one turn in the gateway's vocabulary.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// FromTranscript remaps transcript entries into wire roles: "theia" turns
// become "assistant", everything else is "user".
func FromTranscript(entries []types.TranscriptEntry) []Message {
	messages := make([]Message, 0, len(entries))
	for _, e := range entries {
		role := "user"
		if e.Sender == types.SenderTheia {
			role = "assistant"
		}
		messages = append(messages, Message{Role: role, Content: e.Content})
	}
	return messages
}
