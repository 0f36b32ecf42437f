package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/savelevaik/go-manga-reader/internal/models"
	"github.com/savelevaik/go-manga-reader/internal/storage"
)

// SaveAdmin создаёт учётку администратора.
func (s *Storage) SaveAdmin(ctx context.Context, a *models.AdminUser) error {
	const op = "storage.postgres.SaveAdmin"

	query := `
		INSERT INTO admins(id, login, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.Exec(ctx, query,
		a.ID,
		a.Login,
		a.PasswordHash,
		a.CreatedAt,
		a.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AdminByLogin находит администратора по логину.
func (s *Storage) AdminByLogin(ctx context.Context, login string) (*models.AdminUser, error) {
	const op = "storage.postgres.AdminByLogin"

	query := `
		SELECT id, login, password_hash, created_at, updated_at
		FROM admins
		WHERE login = $1
	`

	var a models.AdminUser
	err := s.db.QueryRow(ctx, query, login).Scan(
		&a.ID,
		&a.Login,
		&a.PasswordHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &a, nil
}

// UpdateAdminPassword заменяет bcrypt-хэш пароля администратора.
func (s *Storage) UpdateAdminPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const op = "storage.postgres.UpdateAdminPassword"

	tag, err := s.db.Exec(ctx,
		`UPDATE admins SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
