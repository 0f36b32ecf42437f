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

// SaveChapter создаёт главу. Нарушение FK по series_id отдаём как
// ErrNotFound: тайтла, к которому прикрепляют главу, не существует.
func (s *Storage) SaveChapter(ctx context.Context, ch *models.Chapter) error {
	const op = "storage.postgres.SaveChapter"

	query := `
		INSERT INTO chapters(id, series_id, number, title, pages, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.Exec(ctx, query,
		ch.ID,
		ch.SeriesID,
		ch.Number,
		ch.Title,
		ch.Pages,
		ch.CreatedAt,
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

// DeleteChapter удаляет главу по ID.
func (s *Storage) DeleteChapter(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteChapter"

	tag, err := s.db.Exec(ctx, `DELETE FROM chapters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ChapterByID находит главу по ID.
func (s *Storage) ChapterByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	const op = "storage.postgres.ChapterByID"

	query := `
		SELECT id, series_id, number, title, pages, created_at
		FROM chapters
		WHERE id = $1
	`

	var ch models.Chapter
	err := s.db.QueryRow(ctx, query, id).Scan(
		&ch.ID,
		&ch.SeriesID,
		&ch.Number,
		&ch.Title,
		&ch.Pages,
		&ch.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ch, nil
}

// ChaptersBySeries возвращает главы тайтла по возрастанию номера.
// Список страниц не включается: он нужен только при чтении главы.
func (s *Storage) ChaptersBySeries(ctx context.Context, seriesID uuid.UUID) ([]models.Chapter, error) {
	const op = "storage.postgres.ChaptersBySeries"

	query := `
		SELECT id, series_id, number, title, created_at
		FROM chapters
		WHERE series_id = $1
		ORDER BY number ASC
	`

	rows, err := s.db.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var chapters []models.Chapter
	for rows.Next() {
		var ch models.Chapter
		if err := rows.Scan(&ch.ID, &ch.SeriesID, &ch.Number, &ch.Title, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		chapters = append(chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return chapters, nil
}
