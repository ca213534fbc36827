package dao

import (
	"context"
	"fmt"

	"theia/theia/sources/psql/models"

	"gorm.io/gorm"
)

type ContextItemDAO struct {
	DB *gorm.DB
}

func NewContextItemDAO(db *gorm.DB) *ContextItemDAO {
	return &ContextItemDAO{DB: db}
}

func (dao *ContextItemDAO) CreateContextItem(ctx context.Context, userID int, name, content string) (*models.ContextItem, error) {
	item := models.ContextItem{
		UserID:  userID,
		Name:    name,
		Content: content,
	}
	if err := dao.DB.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (dao *ContextItemDAO) GetContextItemsByUser(ctx context.Context, userID int) ([]models.ContextItem, error) {
	var items []models.ContextItem
	err := dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (dao *ContextItemDAO) UpdateContextItem(ctx context.Context, id string, userID int, updates map[string]interface{}) error {
	return dao.DB.WithContext(ctx).Model(&models.ContextItem{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates).Error
}

func (dao *ContextItemDAO) DeleteContextItem(ctx context.Context, id string, userID int) error {
	return dao.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.ContextItem{}).Error
}

// ContextContent returns the item's content wrapped in the delimiters the
// gateway prompt expects. A missing item yields "" without error so a stale
// attachment id never blocks a submission.
func (dao *ContextItemDAO) ContextContent(ctx context.Context, itemID string) (string, error) {
	if itemID == "" {
		return "", nil
	}
	var item models.ContextItem
	err := dao.DB.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("--- Context: %s ---\n%s\n--- End Context ---", item.Name, item.Content), nil
}
