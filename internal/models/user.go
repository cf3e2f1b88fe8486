package models

import "time"

type User struct {
	Username string `gorm:"primaryKey;type:varchar(50)" json:"username"`
	// PasswordHash is a bcrypt encoding; it carries the cost and the
	// per-user salt next to the digest.
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false" json:"created_at"`
}
