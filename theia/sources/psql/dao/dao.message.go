package dao

import (
	"context"
	"time"

	"theia/theia/sources/psql/models"
	"theia/theia/utils/types"

	"gorm.io/gorm"
)

type MessageDAO struct {
	DB *gorm.DB
}

func NewMessageDAO(db *gorm.DB) *MessageDAO {
	return &MessageDAO{DB: db}
}

// AppendMessage inserts one immutable turn and bumps the owning chat's
// updated_at in the same transaction. Messages are only ever appended.
func (dao *MessageDAO) AppendMessage(ctx context.Context, chatID string, userID int, sender, content, modelID string) error {
	return dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msg := models.Message{
			ChatID:  chatID,
			UserID:  userID,
			Sender:  sender,
			Content: content,
		}
		if modelID != "" {
			msg.ModelID = &modelID
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Chat{}).
			Where("id = ?", chatID).
			Update("updated_at", time.Now().UTC()).Error
	})
}

// LoadMessages returns the chat's turns ordered by creation time.
func (dao *MessageDAO) LoadMessages(ctx context.Context, chatID string) ([]types.StoredMessage, error) {
	var rows []models.Message
	err := dao.DB.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	messages := make([]types.StoredMessage, 0, len(rows))
	for _, row := range rows {
		m := types.StoredMessage{
			ID:        row.ID,
			Sender:    row.Sender,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
		}
		if row.ModelID != nil {
			m.ModelID = *row.ModelID
		}
		messages = append(messages, m)
	}
	return messages, nil
}
