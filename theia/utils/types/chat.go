// theia/utils/types/chat.go
package types

import "time"

// Sender vocabulary. The store keeps the gateway-side role names; the
// transcript shown to clients uses "theia" for assistant turns.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
	SenderTheia     = "theia"
)

// DefaultChatTitle is the sentinel every chat is created with. Title
// generation only runs while the title still holds this value.
const DefaultChatTitle = "Begin a New Path"

// StoredMessage is one persisted, immutable chat turn as the session layer
// sees it. Sender is SenderUser or SenderAssistant.
type StoredMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	ModelID   string    `json:"model_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptEntry is the lightweight in-memory shape projected for the UI.
// Local marks optimistic entries whose ids were generated client-side and
// will differ from the server ids after a reload.
type TranscriptEntry struct {
	ID      string `json:"id"`
	Sender  string `json:"sender"` // "user" | "theia"
	Content string `json:"content"`
	Local   bool   `json:"local,omitempty"`
}

// SessionState is the pull-based snapshot exposed to the presentation layer.
type SessionState struct {
	Transcript   []TranscriptEntry `json:"transcript"`
	IsResponding bool              `json:"is_responding"`
	LoadError    string            `json:"load_error,omitempty"`
	TutorialView []string          `json:"tutorial_view,omitempty"`
}

type SubmitRequest struct {
	Content       string `json:"content"`
	ContextItemID string `json:"context_item_id,omitempty"`
}

type RenameChatRequest struct {
	Title string `json:"title"`
}

// ChatSummary is one row of the chat-list view.
type ChatSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UpdatedAt string `json:"updated_at"` // RFC3339
}

// TitleUpdate is broadcast once a background title generation lands, so a
// chat-list view can update without re-fetching.
type TitleUpdate struct {
	ChatID   string `json:"chat_id"`
	NewTitle string `json:"new_title"`
}
