package domain

import "time"

// Session is a server-side login session. ID is the opaque bearer token
// carried by the session cookie; no derived secrets are stored alongside it.
type Session struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
