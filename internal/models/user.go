package models

import "time"

type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name         string `gorm:"type:varchar(64);not null" json:"name"`
	PasswordHash string `gorm:"type:varchar(128);not null" json:"-"`

	// Home location used to annotate agent turns, e.g. "Dhaka, Bangladesh".
	Location string `gorm:"type:varchar(128)" json:"location"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
