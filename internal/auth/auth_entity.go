package auth

import (
	"time"

	"github.com/google/uuid"
)

// MaxAdmins is the fixed ceiling on admin accounts.
const MaxAdmins = 2

type Admin struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_admin_email"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Admin) TableName() string {
	return "admins"
}
