// theia/controllers/chat.go
package controllers

import (
	"context"
	"fmt"
	"io"
	"strings"

	"theia/theia/services/session"
	"theia/theia/sources/psql/dao"
	"theia/theia/sources/storage"
	"theia/theia/utils/types"

	"github.com/google/uuid"
)

// ErrChatNotFound is the controller-level "not found or not yours" error;
// routes map it to a 404.
var ErrChatNotFound = fmt.Errorf("chat not found or forbidden")

type ChatController struct {
	chatDAO    *dao.ChatDAO
	messageDAO *dao.MessageDAO
	sessions   *session.Manager
	uploads    *storage.MinIOClient // nil when attachment storage is not configured
}

func NewChatController(chatDAO *dao.ChatDAO, messageDAO *dao.MessageDAO, sessions *session.Manager, uploads *storage.MinIOClient) *ChatController {
	return &ChatController{
		chatDAO:    chatDAO,
		messageDAO: messageDAO,
		sessions:   sessions,
		uploads:    uploads,
	}
}

// CreateSession creates a fresh chat carrying the sentinel title.
func (c *ChatController) CreateSession(ctx context.Context, userID int) (*types.ChatSummary, error) {
	chat, err := c.chatDAO.CreateChat(ctx, uuid.NewString(), userID)
	if err != nil {
		return nil, err
	}
	return &types.ChatSummary{
		ID:        chat.ID,
		Title:     chat.Title,
		UpdatedAt: chat.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

// ListSessions returns the user's chats, most recently active first. Chats
// still carrying the sentinel fall back to an id-derived label, matching the
// chat-list view's expectations.
func (c *ChatController) ListSessions(ctx context.Context, userID int) ([]types.ChatSummary, error) {
	chats, err := c.chatDAO.ListChatsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]types.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		title := chat.Title
		if title == "" {
			title = fmt.Sprintf("Chat %s...", chat.ID[:8])
		}
		summaries = append(summaries, types.ChatSummary{
			ID:        chat.ID,
			Title:     title,
			UpdatedAt: chat.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return summaries, nil
}

// GetState opens (or resumes) the chat's session and returns its current
// snapshot.
func (c *ChatController) GetState(ctx context.Context, userID int, chatID string) (*types.SessionState, error) {
	if err := c.requireOwnership(ctx, chatID, userID); err != nil {
		return nil, err
	}
	orch := c.sessions.Get(ctx, chatID, userID)
	state := orch.CurrentState()
	return &state, nil
}

// SubmitMessage runs one submission cycle and returns the settled state.
func (c *ChatController) SubmitMessage(ctx context.Context, userID int, chatID string, req types.SubmitRequest) (*types.SessionState, error) {
	if err := c.requireOwnership(ctx, chatID, userID); err != nil {
		return nil, err
	}
	orch := c.sessions.Get(ctx, chatID, userID)
	orch.Submit(ctx, req.Content, req.ContextItemID)
	state := orch.CurrentState()
	return &state, nil
}

func (c *ChatController) GetMessages(ctx context.Context, userID int, chatID string) ([]types.StoredMessage, error) {
	if err := c.requireOwnership(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return c.messageDAO.LoadMessages(ctx, chatID)
}

func (c *ChatController) RenameChat(ctx context.Context, userID int, chatID, title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return fmt.Errorf("title is empty")
	}
	return c.chatDAO.RenameChat(ctx, chatID, userID, trimmed)
}

// DeleteChat tears down the live session and removes the chat. Deleting a
// chat that is already gone succeeds.
func (c *ChatController) DeleteChat(ctx context.Context, userID int, chatID string) error {
	c.sessions.Remove(chatID)
	return c.chatDAO.DeleteChat(ctx, chatID, userID)
}

// UploadAttachment stores one uploaded file next to the chat.
func (c *ChatController) UploadAttachment(ctx context.Context, userID int, chatID, filename, contentType string, body io.Reader, size int64) (string, error) {
	if c.uploads == nil {
		return "", fmt.Errorf("attachment storage not configured")
	}
	if err := c.requireOwnership(ctx, chatID, userID); err != nil {
		return "", err
	}
	return c.uploads.UploadAttachment(ctx, chatID, filename, contentType, body, size)
}

// GetAttachment streams a previously uploaded file back. The key must sit
// under the chat's own prefix.
func (c *ChatController) GetAttachment(ctx context.Context, userID int, chatID, key string) (io.ReadCloser, error) {
	if c.uploads == nil {
		return nil, fmt.Errorf("attachment storage not configured")
	}
	if err := c.requireOwnership(ctx, chatID, userID); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(key, "attachments/"+chatID+"/") {
		return nil, ErrChatNotFound
	}
	return c.uploads.GetAttachment(ctx, key)
}

// OwnsChat reports whether the chat exists and belongs to the user. Lookup
// failures count as not-owned.
func (c *ChatController) OwnsChat(ctx context.Context, userID int, chatID string) bool {
	chat, err := c.chatDAO.GetChatForUser(ctx, chatID, userID)
	return err == nil && chat != nil
}

func (c *ChatController) requireOwnership(ctx context.Context, chatID string, userID int) error {
	chat, err := c.chatDAO.GetChatForUser(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if chat == nil {
		return ErrChatNotFound
	}
	return nil
}
