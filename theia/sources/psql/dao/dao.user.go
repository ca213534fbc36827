package dao

import (
	"context"

	"theia/theia/sources/psql/models"

	"gorm.io/gorm"
)

type UserDAO struct {
	DB *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{DB: db}
}

func (dao *UserDAO) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	err := dao.DB.WithContext(ctx).First(&user, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (dao *UserDAO) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := dao.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (dao *UserDAO) CreateUser(ctx context.Context, username, email string, fullName *string) (*models.User, error) {
	user := models.User{
		Username: username,
		Email:    email,
		FullName: fullName,
	}
	err := dao.DB.WithContext(ctx).Create(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOnboardingStatus reports whether the user has ever completed the
// first-session tutorial.
func (dao *UserDAO) GetOnboardingStatus(ctx context.Context, userID int) (bool, error) {
	var user models.User
	err := dao.DB.WithContext(ctx).Select("has_completed_onboarding").First(&user, userID).Error
	if err != nil {
		return false, err
	}
	return user.HasCompletedOnboarding, nil
}

func (dao *UserDAO) SetOnboardingStatus(ctx context.Context, userID int) error {
	return dao.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("has_completed_onboarding", true).Error
}

// GetSelectedModel returns the user's preferred model, or "" when unset.
func (dao *UserDAO) GetSelectedModel(ctx context.Context, userID int) (string, error) {
	var user models.User
	err := dao.DB.WithContext(ctx).Select("selected_model").First(&user, userID).Error
	if err != nil {
		return "", err
	}
	return user.SelectedModel, nil
}

func (dao *UserDAO) SetSelectedModel(ctx context.Context, userID int, modelID string) error {
	return dao.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("selected_model", modelID).Error
}
