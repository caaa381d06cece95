package model

import (
	"time"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
	Username    string    `json:"username" gorm:"unique;not null;size:64"`
	Password    string    `json:"-" gorm:"not null"`
	Email       string    `json:"email" gorm:"index;size:255"`
	DateOfBirth time.Time `json:"date_of_birth" gorm:"type:date"`
	Images      []Image   `json:"-" gorm:"foreignKey:OwnerID"`
}
