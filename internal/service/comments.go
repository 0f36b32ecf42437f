package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/savelevaik/go-manga-reader/internal/auth"
	"github.com/savelevaik/go-manga-reader/internal/models"
	"github.com/savelevaik/go-manga-reader/internal/storage"
	"github.com/savelevaik/go-manga-reader/pkg/log"
)

// maxCommentLen — максимальная длина комментария в рунах.
const maxCommentLen = 4096

// CommentsBySeries возвращает страницу неудалённых комментариев тайтла,
// новые сверху. Доступно без аутентификации.
func (s *Service) CommentsBySeries(ctx context.Context, seriesID uuid.UUID, params storage.ListParams) (*models.CommentPage, error) {
	const op = "service.comments.CommentsBySeries"

	if _, err := s.SeriesByID(ctx, seriesID); err != nil {
		return nil, err
	}

	page, err := s.storage.CommentsBySeries(ctx, seriesID, params)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}

		log.From(ctx).Error("list comments failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return page, nil
}

// CreateComment публикует комментарий от имени аутентифицированного
// принципала. Автор и имя берутся из проверенных клеймов, не из тела запроса.
func (s *Service) CreateComment(ctx context.Context, p *auth.Principal, seriesID uuid.UUID, content string) (*models.Comment, error) {
	const op = "service.comments.CreateComment"

	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return nil, fmt.Errorf("%w: comment is empty", ErrInvalidArgument)
	case utf8.RuneCountInString(content) > maxCommentLen:
		return nil, fmt.Errorf("%w: comment is too long", ErrInvalidArgument)
	}

	username := p.Username
	if username == "" {
		username = p.Name
	}

	c := &models.Comment{
		ID:        uuid.New(),
		SeriesID:  seriesID,
		UserID:    p.UserID,
		Username:  username,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}

	if err := s.storage.SaveComment(ctx, c); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// FK на series: тайтла нет.
			return nil, ErrNotFound
		}

		log.From(ctx).Error("save comment failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return c, nil
}

// DeleteComment мягко удаляет комментарий. Разрешено автору и администратору;
// чужой комментарий без роли admin — ErrPermissionDenied.
func (s *Service) DeleteComment(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	const op = "service.comments.DeleteComment"

	c, err := s.storage.CommentByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}

		log.From(ctx).Error("comment lookup failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	// Уже удалённый комментарий наружу не отдаём.
	if c.Deleted {
		return ErrNotFound
	}

	if c.UserID != p.UserID && !p.IsAdmin() {
		return ErrPermissionDenied
	}

	if err := s.storage.DeleteComment(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}

		log.From(ctx).Error("delete comment failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return nil
}
