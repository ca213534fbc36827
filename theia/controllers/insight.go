// theia/controllers/insight.go
package controllers

import (
	"context"
	"fmt"

	"theia/theia/sources/psql/dao"
	"theia/theia/sources/psql/models"
)

// InsightController handles saving standout coach replies to the user's
// Rock Garden.
type InsightController struct {
	insights *dao.InsightDAO
	messages *dao.MessageDAO
	chats    *dao.ChatDAO
}

func NewInsightController(insights *dao.InsightDAO, messages *dao.MessageDAO, chats *dao.ChatDAO) *InsightController {
	return &InsightController{insights: insights, messages: messages, chats: chats}
}

func (c *InsightController) SaveInsight(ctx context.Context, userID int, content string) (*models.Insight, error) {
	if content == "" {
		return nil, fmt.Errorf("insight content is empty")
	}
	return c.insights.CreateInsight(ctx, userID, content)
}

// SaveInsightFromMessage looks a persisted turn up by id and saves its
// content, so the client does not have to round-trip the text.
func (c *InsightController) SaveInsightFromMessage(ctx context.Context, userID int, chatID, messageID string) (*models.Insight, error) {
	chat, err := c.chats.GetChatForUser(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	msgs, err := c.messages.LoadMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		if m.ID == messageID {
			return c.insights.CreateInsight(ctx, userID, m.Content)
		}
	}
	return nil, fmt.Errorf("message not found")
}

func (c *InsightController) ListInsights(ctx context.Context, userID int) ([]models.Insight, error) {
	return c.insights.GetInsightsByUser(ctx, userID)
}

func (c *InsightController) DeleteInsight(ctx context.Context, id string, userID int) error {
	return c.insights.DeleteInsight(ctx, id, userID)
}
