package dao

import (
	"context"
	"fmt"
	"time"

	"theia/theia/sources/psql/models"
	"theia/theia/utils/types"

	"gorm.io/gorm"
)

type ChatDAO struct {
	DB *gorm.DB
}

func NewChatDAO(db *gorm.DB) *ChatDAO {
	return &ChatDAO{DB: db}
}

// CreateChat inserts a new chat with the default sentinel title.
func (dao *ChatDAO) CreateChat(ctx context.Context, id string, userID int) (*models.Chat, error) {
	chat := models.Chat{
		ID:     id,
		UserID: userID,
		Title:  types.DefaultChatTitle,
	}
	if err := dao.DB.WithContext(ctx).Create(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetChatForUser returns nil without error when the chat does not exist or
// belongs to another user.
func (dao *ChatDAO) GetChatForUser(ctx context.Context, chatID string, userID int) (*models.Chat, error) {
	var chat models.Chat
	err := dao.DB.WithContext(ctx).Where("id = ? AND user_id = ?", chatID, userID).First(&chat).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListChatsByUser returns the user's chats, most recently updated first.
func (dao *ChatDAO) ListChatsByUser(ctx context.Context, userID int) ([]models.Chat, error) {
	var chats []models.Chat
	err := dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func (dao *ChatDAO) RenameChat(ctx context.Context, chatID string, userID int, title string) error {
	result := dao.DB.WithContext(ctx).Model(&models.Chat{}).
		Where("id = ? AND user_id = ?", chatID, userID).
		Updates(map[string]interface{}{"title": title, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("chat not found or forbidden")
	}
	return nil
}

// DeleteChat is idempotent: deleting a chat that is already gone succeeds.
func (dao *ChatDAO) DeleteChat(ctx context.Context, chatID string, userID int) error {
	return dao.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", chatID, userID).
		Delete(&models.Chat{}).Error
}

// GetChatTitle reads the current title. Used by the title generator's
// re-check-before-write guard.
func (dao *ChatDAO) GetChatTitle(ctx context.Context, chatID string) (string, error) {
	var chat models.Chat
	err := dao.DB.WithContext(ctx).Select("title").Where("id = ?", chatID).First(&chat).Error
	if err != nil {
		return "", err
	}
	return chat.Title, nil
}

// SetChatTitle writes the title unconditionally (last-writer-wins).
func (dao *ChatDAO) SetChatTitle(ctx context.Context, chatID string, title string) error {
	return dao.DB.WithContext(ctx).Model(&models.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]interface{}{"title": title, "updated_at": time.Now().UTC()}).Error
}
