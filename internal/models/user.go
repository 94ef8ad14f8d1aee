package models

import "time"

// User is the single account record: credentials plus free-form profile fields.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"` // bcrypt hash, never plaintext
	Name      string
	Email     string `gorm:"index"`
	Summary   string
	Company   string
	JobTitle  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
