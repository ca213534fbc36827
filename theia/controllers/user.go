// theia/controllers/user.go
package controllers

import (
	"context"

	"theia/theia/config"
	"theia/theia/sources/psql/dao"
	"theia/theia/sources/psql/models"
)

type UserController struct {
	dao *dao.UserDAO
	cfg config.Config
}

func NewUserController(dao *dao.UserDAO, cfg config.Config) *UserController {
	return &UserController{dao: dao, cfg: cfg}
}

func (c *UserController) GetUser(ctx context.Context, id int) (*models.User, error) {
	return c.dao.GetUserByID(ctx, id)
}

func (c *UserController) CreateUser(ctx context.Context, username, email string, fullName *string) (map[string]interface{}, error) {
	user, err := c.dao.CreateUser(ctx, username, email, fullName)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":        user.ID,
		"username":  user.Username,
		"email":     user.Email,
		"full_name": user.FullName,
	}, nil
}

// GetModelSettings returns the user's effective generation model, falling
// back to the configured default when none is stored.
func (c *UserController) GetModelSettings(ctx context.Context, userID int) (map[string]string, error) {
	selected, err := c.dao.GetSelectedModel(ctx, userID)
	if err != nil {
		return nil, err
	}
	if selected == "" {
		selected = c.cfg.ChatModel
	}
	return map[string]string{"selected_model": selected}, nil
}

func (c *UserController) UpdateSelectedModel(ctx context.Context, userID int, modelID string) error {
	return c.dao.SetSelectedModel(ctx, userID, modelID)
}
