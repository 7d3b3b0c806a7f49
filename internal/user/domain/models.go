// Package domain contains the host reference registry model.
package domain

import "time"

// User is a known account a meeting host reference can resolve against.
type User struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	DisplayName string    `json:"display_name" gorm:"type:text;not null"`
	Email       *string   `json:"email,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
