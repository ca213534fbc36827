package dao

import (
	"context"
	"strings"

	"theia/theia/sources/psql/models"

	"gorm.io/gorm"
)

type InsightDAO struct {
	DB *gorm.DB
}

func NewInsightDAO(db *gorm.DB) *InsightDAO {
	return &InsightDAO{DB: db}
}

// CreateInsight saves a message's content to the user's Rock Garden. The
// title is the first five words of the content.
func (dao *InsightDAO) CreateInsight(ctx context.Context, userID int, content string) (*models.Insight, error) {
	insight := models.Insight{
		UserID:  userID,
		Title:   insightTitle(content),
		Content: content,
	}
	if err := dao.DB.WithContext(ctx).Create(&insight).Error; err != nil {
		return nil, err
	}
	return &insight, nil
}

func (dao *InsightDAO) GetInsightsByUser(ctx context.Context, userID int) ([]models.Insight, error) {
	var insights []models.Insight
	err := dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&insights).Error
	if err != nil {
		return nil, err
	}
	return insights, nil
}

func (dao *InsightDAO) DeleteInsight(ctx context.Context, id string, userID int) error {
	return dao.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Insight{}).Error
}

func insightTitle(content string) string {
	words := strings.Fields(content)
	if len(words) <= 5 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:5], " ") + "..."
}
