// storage задаёт контракты доступа к реляционному хранилищу каталога,
// комментариев и учёток администраторов. Реализация — postgres (pgx).
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/savelevaik/go-manga-reader/internal/models"
)

var (
	// ErrNotFound — запись не найдена (тайтл/глава/комментарий/админ).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (slug тайтла, номер главы,
	// логин администратора).
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCursor — некорректный page_token постраничной выдачи.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// ListParams — параметры постраничной выдачи (keyset-курсор).
type ListParams struct {
	PageSize  int32
	PageToken string
}

// SeriesStorage выполняет операции над тайтлами.
type SeriesStorage interface {
	// SaveSeries создаёт новый тайтл.
	SaveSeries(ctx context.Context, s *models.Series) error
	// UpdateSeries обновляет существующий тайтл.
	UpdateSeries(ctx context.Context, s *models.Series) error
	// DeleteSeries удаляет тайтл вместе с главами и комментариями.
	DeleteSeries(ctx context.Context, id uuid.UUID) error
	// SeriesByID находит тайтл по ID.
	SeriesByID(ctx context.Context, id uuid.UUID) (*models.Series, error)
	// ListSeries — страница каталога, новые сверху.
	ListSeries(ctx context.Context, params ListParams) (*models.SeriesPage, error)
}

// ChapterStorage выполняет операции над главами.
type ChapterStorage interface {
	// SaveChapter создаёт главу тайтла.
	SaveChapter(ctx context.Context, ch *models.Chapter) error
	// DeleteChapter удаляет главу по ID.
	DeleteChapter(ctx context.Context, id uuid.UUID) error
	// ChapterByID находит главу по ID (вместе со списком страниц).
	ChapterByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error)
	// ChaptersBySeries возвращает все главы тайтла по возрастанию номера.
	ChaptersBySeries(ctx context.Context, seriesID uuid.UUID) ([]models.Chapter, error)
}

// CommentStorage выполняет операции над комментариями.
type CommentStorage interface {
	// SaveComment создаёт комментарий.
	SaveComment(ctx context.Context, c *models.Comment) error
	// CommentByID находит комментарий по ID (включая мягко удалённые).
	CommentByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	// DeleteComment мягко удаляет комментарий.
	DeleteComment(ctx context.Context, id uuid.UUID) error
	// CommentsBySeries — страница неудалённых комментариев тайтла,
	// новые сверху.
	CommentsBySeries(ctx context.Context, seriesID uuid.UUID, params ListParams) (*models.CommentPage, error)
}

// AdminStorage выполняет операции над учётками администраторов.
type AdminStorage interface {
	// SaveAdmin создаёт учётку администратора.
	SaveAdmin(ctx context.Context, a *models.AdminUser) error
	// AdminByLogin находит администратора по логину.
	AdminByLogin(ctx context.Context, login string) (*models.AdminUser, error)
	// UpdateAdminPassword заменяет bcrypt-хэш пароля.
	UpdateAdminPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	SeriesStorage
	ChapterStorage
	CommentStorage
	AdminStorage
	Close()
}
