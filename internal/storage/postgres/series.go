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

// SaveSeries создаёт новый тайтл.
func (s *Storage) SaveSeries(ctx context.Context, series *models.Series) error {
	const op = "storage.postgres.SaveSeries"

	query := `
		INSERT INTO series(id, title, slug, description, cover_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		series.ID,
		series.Title,
		series.Slug,
		series.Description,
		series.CoverURL,
		series.CreatedAt,
		series.UpdatedAt,
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

// UpdateSeries обновляет существующий тайтл.
func (s *Storage) UpdateSeries(ctx context.Context, series *models.Series) error {
	const op = "storage.postgres.UpdateSeries"

	query := `
		UPDATE series
		SET title = $2, slug = $3, description = $4, cover_url = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query,
		series.ID,
		series.Title,
		series.Slug,
		series.Description,
		series.CoverURL,
		series.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeleteSeries удаляет тайтл; главы и комментарии уходят каскадом (FK).
func (s *Storage) DeleteSeries(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteSeries"

	tag, err := s.db.Exec(ctx, `DELETE FROM series WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// SeriesByID находит тайтл по ID.
func (s *Storage) SeriesByID(ctx context.Context, id uuid.UUID) (*models.Series, error) {
	const op = "storage.postgres.SeriesByID"

	query := `
		SELECT id, title, slug, description, cover_url, created_at, updated_at
		FROM series
		WHERE id = $1
	`

	var series models.Series
	err := s.db.QueryRow(ctx, query, id).Scan(
		&series.ID,
		&series.Title,
		&series.Slug,
		&series.Description,
		&series.CoverURL,
		&series.CreatedAt,
		&series.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &series, nil
}

// ListSeries — страница каталога: новые сверху, keyset-курсор по
// (created_at, id).
func (s *Storage) ListSeries(ctx context.Context, params storage.ListParams) (*models.SeriesPage, error) {
	const op = "storage.postgres.ListSeries"

	size := normalizePageSize(params.PageSize)

	query := `
		SELECT id, title, slug, description, cover_url, created_at, updated_at
		FROM series
		WHERE ($1::timestamptz IS NULL OR (created_at, id) < ($1, $2))
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	var args []any
	if params.PageToken != "" {
		c, err := decodeCursor(params.PageToken)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		args = []any{c.CreatedAt, c.ID, size + 1}
	} else {
		args = []any{nil, uuid.Nil, size + 1}
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]models.Series, 0, size)
	for rows.Next() {
		var it models.Series
		if err := rows.Scan(
			&it.ID, &it.Title, &it.Slug, &it.Description,
			&it.CoverURL, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page := &models.SeriesPage{}
	// Выбирали size+1: лишний элемент означает, что есть следующая страница.
	if int32(len(items)) > size {
		items = items[:size]
		last := items[len(items)-1]
		page.NextPageToken = encodeCursor(cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	page.Items = items

	return page, nil
}
