// theia/controllers/context.go
package controllers

import (
	"context"

	"theia/theia/sources/psql/dao"
	"theia/theia/sources/psql/models"
)

// ContextController manages the reusable context snippets a user can attach
// to a submission.
type ContextController struct {
	dao *dao.ContextItemDAO
}

func NewContextController(d *dao.ContextItemDAO) *ContextController {
	return &ContextController{dao: d}
}

func (c *ContextController) CreateContextItem(ctx context.Context, userID int, name, content string) (*models.ContextItem, error) {
	return c.dao.CreateContextItem(ctx, userID, name, content)
}

func (c *ContextController) ListContextItems(ctx context.Context, userID int) ([]models.ContextItem, error) {
	return c.dao.GetContextItemsByUser(ctx, userID)
}

func (c *ContextController) UpdateContextItem(ctx context.Context, id string, userID int, name, content *string) error {
	updates := map[string]interface{}{}
	if name != nil {
		updates["name"] = *name
	}
	if content != nil {
		updates["content"] = *content
	}
	if len(updates) == 0 {
		return nil
	}
	return c.dao.UpdateContextItem(ctx, id, userID, updates)
}

func (c *ContextController) DeleteContextItem(ctx context.Context, id string, userID int) error {
	return c.dao.DeleteContextItem(ctx, id, userID)
}
