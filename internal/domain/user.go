package domain

import "time"

// User is an identity record. The password hash never leaves the auth
// service and is never serialized.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }
