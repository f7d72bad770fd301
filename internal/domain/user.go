package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the account a Todo belongs to. Accounts are managed by the auth
// service; this API only references them.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
}
