package domain

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"size:256;not null" json:"-"`
	Nickname     string    `gorm:"size:64;uniqueIndex;not null" json:"nickname"`
	Email        *string   `gorm:"size:256" json:"email,omitempty"`
	Phone        *string   `gorm:"size:32" json:"phone,omitempty"`
	Intro        *string   `gorm:"size:1024" json:"intro,omitempty"`
	Recommender  *string   `gorm:"size:64" json:"recommender,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
