package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser — учётная запись администратора. Пароль хранится только
// как bcrypt-хэш.
type AdminUser struct {
	ID           uuid.UUID
	Login        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
