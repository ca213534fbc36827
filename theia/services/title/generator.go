// Package title produces a short human-readable chat title once enough
// conversational context exists.
package title

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"theia/theia/services/events"
	"theia/theia/services/llm"
	"theia/theia/utils/logging"
	"theia/theia/utils/types"

	"go.uber.org/zap"
)

// ErrInsufficientContext is returned when the transcript is too short for a
// meaningful title. It is a reported failure, not a retry signal.
var ErrInsufficientContext = errors.New("not enough conversation context to generate a title")

const (
	// Minimum transcript length before a title is attempted.
	minMessages = 5
	// The snippet is built from at most this many leading messages.
	snippetMessages = 6
)

type Store interface {
	GetChatTitle(ctx context.Context, chatID string) (string, error)
	SetChatTitle(ctx context.Context, chatID string, title string) error
}

type Gateway interface {
	Generate(ctx context.Context, messages []llm.Message, model string) (string, error)
}

type Generator struct {
	store   Store
	gateway Gateway
	model   string
	bus     *events.Bus
}

// NewGenerator wires the generator to a cheaper/faster model than the
// conversational one.
func NewGenerator(store Store, gateway Gateway, model string, bus *events.Bus) *Generator {
	return &Generator{store: store, gateway: gateway, model: model, bus: bus}
}

// GenerateTitle titles the chat from the given transcript snapshot. It is an
// idempotent no-op when the title is no longer the default sentinel, which
// also serves as the only guard against concurrent triggers: re-check before
// write, last-writer-wins.
func (g *Generator) GenerateTitle(ctx context.Context, chatID string, snapshot []types.TranscriptEntry) (string, error) {
	current, err := g.store.GetChatTitle(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("could not fetch chat details: %w", err)
	}
	if current != types.DefaultChatTitle {
		return current, nil
	}

	if len(snapshot) < minMessages {
		return "", ErrInsufficientContext
	}

	snippet := buildSnippet(snapshot)
	prompt := []llm.Message{{
		Role: "user",
		Content: fmt.Sprintf("Conversation Snippet:\n\"\"\"\n%s\n\"\"\"\n\n"+
			"Analyze the conversation. Summarize the core topic or problem in a concise, 3-5 word title. "+
			"Focus on the user's main subject, avoiding conversational pleasantries. "+
			"Do not use quotation marks or any other punctuation. This is to appear as a Title. "+
			"Exclude all extraneous data in the response. Only a simple 3-5 word text response.", snippet),
	}}

	generated, err := g.gateway.Generate(ctx, prompt, g.model)
	if err != nil {
		return "", fmt.Errorf("AI could not generate a title: %w", err)
	}

	newTitle := stripQuotes(generated)
	if newTitle == "" {
		return "", fmt.Errorf("AI could not generate a title")
	}

	if err := g.store.SetChatTitle(ctx, chatID, newTitle); err != nil {
		return "", fmt.Errorf("could not save the new title: %w", err)
	}

	logging.AppLogger.Info("chat title generated",
		zap.String("chat_id", chatID),
		zap.String("title", newTitle),
	)
	g.bus.Publish(types.TitleUpdate{ChatID: chatID, NewTitle: newTitle})
	return newTitle, nil
}

func buildSnippet(snapshot []types.TranscriptEntry) string {
	n := len(snapshot)
	if n > snippetMessages {
		n = snippetMessages
	}
	lines := make([]string, 0, n)
	for _, entry := range snapshot[:n] {
		speaker := "AI"
		if entry.Sender == types.SenderUser {
			speaker = "User"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, entry.Content))
	}
	return strings.Join(lines, "\n\n")
}

var quoteStripper = strings.NewReplacer(`"`, "", `'`, "")

func stripQuotes(s string) string {
	return strings.TrimSpace(quoteStripper.Replace(s))
}
