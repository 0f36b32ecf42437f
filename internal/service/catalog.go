package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/savelevaik/go-manga-reader/internal/models"
	"github.com/savelevaik/go-manga-reader/internal/storage"
	"github.com/savelevaik/go-manga-reader/pkg/log"
)

// slugRe — допустимая форма slug: строчные латинские буквы, цифры и дефисы,
// без дефисов по краям.
var slugRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

const (
	maxTitleLen       = 256
	maxDescriptionLen = 8192
)

// SeriesInput — данные создания/обновления тайтла.
type SeriesInput struct {
	Title       string
	Slug        string
	Description string
	CoverURL    string
}

func (in *SeriesInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)

	switch {
	case in.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidArgument)
	case len(in.Title) > maxTitleLen:
		return fmt.Errorf("%w: title is too long", ErrInvalidArgument)
	case !slugRe.MatchString(in.Slug):
		return fmt.Errorf("%w: slug must match %s", ErrInvalidArgument, slugRe.String())
	case len(in.Description) > maxDescriptionLen:
		return fmt.Errorf("%w: description is too long", ErrInvalidArgument)
	}

	return nil
}

// ChapterInput — данные создания главы.
type ChapterInput struct {
	SeriesID uuid.UUID
	Number   float64
	Title    string
	Pages    []string
}

func (in *ChapterInput) validate() error {
	switch {
	case in.SeriesID == uuid.Nil:
		return fmt.Errorf("%w: series_id is required", ErrInvalidArgument)
	case in.Number <= 0:
		return fmt.Errorf("%w: chapter number must be positive", ErrInvalidArgument)
	case len(in.Pages) == 0:
		return fmt.Errorf("%w: chapter must have at least one page", ErrInvalidArgument)
	}

	for _, p := range in.Pages {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: empty page url", ErrInvalidArgument)
		}
	}

	return nil
}

// ListSeries возвращает страницу каталога, новые тайтлы сверху.
// Результат кэшируется по паре (page_size, page_token), если кэш включён.
func (s *Service) ListSeries(ctx context.Context, params storage.ListParams) (*models.SeriesPage, error) {
	const op = "service.catalog.ListSeries"

	cacheKey := fmt.Sprintf("%d:%s", params.PageSize, params.PageToken)

	if s.ccache != nil {
		if page, ok, err := s.ccache.GetSeriesPage(ctx, cacheKey); err != nil {
			log.From(ctx).Warn("catalog cache read failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		} else if ok {
			return page, nil
		}
	}

	page, err := s.storage.ListSeries(ctx, params)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}

		log.From(ctx).Error("list series failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if s.ccache != nil {
		if err := s.ccache.SetSeriesPage(ctx, cacheKey, page); err != nil {
			log.From(ctx).Warn("catalog cache write failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	return page, nil
}

// SeriesByID возвращает тайтл по идентификатору.
func (s *Service) SeriesByID(ctx context.Context, id uuid.UUID) (*models.Series, error) {
	const op = "service.catalog.SeriesByID"

	if s.ccache != nil {
		if series, ok, err := s.ccache.GetSeries(ctx, id); err != nil {
			log.From(ctx).Warn("catalog cache read failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		} else if ok {
			return series, nil
		}
	}

	series, err := s.storage.SeriesByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}

		log.From(ctx).Error("series lookup failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if s.ccache != nil {
		if err := s.ccache.SetSeries(ctx, series); err != nil {
			log.From(ctx).Warn("catalog cache write failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	return series, nil
}

// ChaptersBySeries возвращает список глав тайтла (без содержимого страниц).
// Для несуществующего тайтла — ErrNotFound, а не пустой список.
func (s *Service) ChaptersBySeries(ctx context.Context, seriesID uuid.UUID) ([]models.Chapter, error) {
	const op = "service.catalog.ChaptersBySeries"

	if _, err := s.SeriesByID(ctx, seriesID); err != nil {
		return nil, err
	}

	chapters, err := s.storage.ChaptersBySeries(ctx, seriesID)
	if err != nil {
		log.From(ctx).Error("chapters lookup failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return chapters, nil
}

// ChapterByID возвращает главу вместе со списком страниц.
func (s *Service) ChapterByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	const op = "service.catalog.ChapterByID"

	ch, err := s.storage.ChapterByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}

		log.From(ctx).Error("chapter lookup failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return ch, nil
}

// CreateSeries создаёт тайтл. Только для администраторов (проверяется
// транспортом), здесь — валидация и запись.
func (s *Service) CreateSeries(ctx context.Context, in SeriesInput) (*models.Series, error) {
	const op = "service.catalog.CreateSeries"

	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	series := &models.Series{
		ID:          uuid.New(),
		Title:       in.Title,
		Slug:        in.Slug,
		Description: in.Description,
		CoverURL:    in.CoverURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.storage.SaveSeries(ctx, series); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: slug %q is taken", ErrAlreadyExists, in.Slug)
		}

		log.From(ctx).Error("save series failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	s.invalidateCatalog(ctx, series.ID)

	return series, nil
}

// UpdateSeries обновляет тайтл целиком (PUT-семантика).
func (s *Service) UpdateSeries(ctx context.Context, id uuid.UUID, in SeriesInput) (*models.Series, error) {
	const op = "service.catalog.UpdateSeries"

	if err := in.validate(); err != nil {
		return nil, err
	}

	current, err := s.storage.SeriesByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}

		log.From(ctx).Error("series lookup failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	current.Title = in.Title
	current.Slug = in.Slug
	current.Description = in.Description
	current.CoverURL = in.CoverURL
	current.UpdatedAt = s.now().UTC()

	if err := s.storage.UpdateSeries(ctx, current); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, storage.ErrAlreadyExists):
			return nil, fmt.Errorf("%w: slug %q is taken", ErrAlreadyExists, in.Slug)
		}

		log.From(ctx).Error("update series failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	s.invalidateCatalog(ctx, id)

	return current, nil
}

// DeleteSeries удаляет тайтл вместе с главами и комментариями (каскад в БД).
func (s *Service) DeleteSeries(ctx context.Context, id uuid.UUID) error {
	const op = "service.catalog.DeleteSeries"

	if err := s.storage.DeleteSeries(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}

		log.From(ctx).Error("delete series failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	s.invalidateCatalog(ctx, id)

	return nil
}

// CreateChapter добавляет главу к тайтлу.
func (s *Service) CreateChapter(ctx context.Context, in ChapterInput) (*models.Chapter, error) {
	const op = "service.catalog.CreateChapter"

	if err := in.validate(); err != nil {
		return nil, err
	}

	ch := &models.Chapter{
		ID:        uuid.New(),
		SeriesID:  in.SeriesID,
		Number:    in.Number,
		Title:     strings.TrimSpace(in.Title),
		Pages:     in.Pages,
		CreatedAt: s.now().UTC(),
	}

	if err := s.storage.SaveChapter(ctx, ch); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// FK на series: тайтла нет.
			return nil, ErrNotFound
		case errors.Is(err, storage.ErrAlreadyExists):
			return nil, fmt.Errorf("%w: chapter %v already exists", ErrAlreadyExists, in.Number)
		}

		log.From(ctx).Error("save chapter failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	s.invalidateCatalog(ctx, in.SeriesID)

	return ch, nil
}

// DeleteChapter удаляет главу.
func (s *Service) DeleteChapter(ctx context.Context, id uuid.UUID) error {
	const op = "service.catalog.DeleteChapter"

	ch, err := s.storage.ChapterByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}

		log.From(ctx).Error("chapter lookup failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if err := s.storage.DeleteChapter(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}

		log.From(ctx).Error("delete chapter failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	s.invalidateCatalog(ctx, ch.SeriesID)

	return nil
}

// invalidateCatalog сбрасывает кэш после мутации; ошибки кэша не влияют
// на результат операции.
func (s *Service) invalidateCatalog(ctx context.Context, seriesID uuid.UUID) {
	if s.ccache == nil {
		return
	}

	if err := s.ccache.InvalidateSeries(ctx, seriesID); err != nil {
		log.From(ctx).Warn("catalog cache invalidation failed",
			slog.String("err", err.Error()),
		)
	}
}
