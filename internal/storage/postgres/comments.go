package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/savelevaik/go-manga-reader/internal/models"
	"github.com/savelevaik/go-manga-reader/internal/storage"
)

// SaveComment создаёт комментарий. FK по series_id -> ErrNotFound.
func (s *Storage) SaveComment(ctx context.Context, c *models.Comment) error {
	const op = "storage.postgres.SaveComment"

	query := `
		INSERT INTO comments(id, series_id, user_id, username, content, created_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		c.ID,
		c.SeriesID,
		c.UserID,
		c.Username,
		c.Content,
		c.CreatedAt,
		c.Deleted,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
			case pgerrcode.ForeignKeyViolation:
				return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
			}
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// CommentByID находит комментарий по ID, включая мягко удалённые:
// проверка прав на удаление делается сервисным слоем.
func (s *Storage) CommentByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	const op = "storage.postgres.CommentByID"

	query := `
		SELECT id, series_id, user_id, username, content, created_at, deleted
		FROM comments
		WHERE id = $1
	`

	var c models.Comment
	err := s.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.SeriesID,
		&c.UserID,
		&c.Username,
		&c.Content,
		&c.CreatedAt,
		&c.Deleted,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &c, nil
}

// DeleteComment мягко удаляет комментарий (повторное удаление — not found).
func (s *Storage) DeleteComment(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteComment"

	tag, err := s.db.Exec(ctx,
		`UPDATE comments SET deleted = TRUE WHERE id = $1 AND deleted = FALSE`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// CommentsBySeries — страница неудалённых комментариев тайтла, новые
// сверху, keyset-курсор по (created_at, id).
func (s *Storage) CommentsBySeries(ctx context.Context, seriesID uuid.UUID, params storage.ListParams) (*models.CommentPage, error) {
	const op = "storage.postgres.CommentsBySeries"

	size := normalizePageSize(params.PageSize)

	query := `
		SELECT id, series_id, user_id, username, content, created_at, deleted
		FROM comments
		WHERE series_id = $1
		  AND deleted = FALSE
		  AND ($2::timestamptz IS NULL OR (created_at, id) < ($2, $3))
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`

	var args []any
	if params.PageToken != "" {
		c, err := decodeCursor(params.PageToken)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		args = []any{seriesID, c.CreatedAt, c.ID, size + 1}
	} else {
		args = []any{seriesID, nil, uuid.Nil, size + 1}
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]models.Comment, 0, size)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(
			&c.ID, &c.SeriesID, &c.UserID, &c.Username,
			&c.Content, &c.CreatedAt, &c.Deleted,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page := &models.CommentPage{}
	if int32(len(items)) > size {
		items = items[:size]
		last := items[len(items)-1]
		page.NextPageToken = encodeCursor(cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	page.Items = items

	return page, nil
}
