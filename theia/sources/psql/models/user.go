package models

type User struct {
	ID       int     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username string  `json:"username" gorm:"type:varchar(255);not null"`
	Email    string  `json:"email" gorm:"type:varchar(255);not null"`
	FullName *string `json:"full_name,omitempty" gorm:"type:varchar(255)"`

	// Set once the first-ever tutorial has been completed; decides whether a
	// fresh empty chat shows the full onboarding script or the short
	// welcome-back line.
	HasCompletedOnboarding bool `json:"has_completed_onboarding" gorm:"not null;default:false"`

	// Preferred generation model; empty means the configured default.
	SelectedModel string `json:"selected_model,omitempty" gorm:"type:varchar(255)"`
}
