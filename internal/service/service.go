// service содержит бизнес-логику сайта-читалки: вход через Telegram и
// выпуск сессионных токенов, вход администратора и ротацию пароля,
// операции каталога (тайтлы/главы) и комментариев поверх интерфейсов
// из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются и далее маппятся HTTP-слоем на статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"
	"time"

	"github.com/savelevaik/go-manga-reader/internal/auth"
	"github.com/savelevaik/go-manga-reader/internal/cache"
	"github.com/savelevaik/go-manga-reader/internal/config"
	"github.com/savelevaik/go-manga-reader/internal/storage"
)

var (
	// ErrInvalidCredentials — логин/пароль администратора неверны либо
	// данные Telegram-виджета не прошли проверку. HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRateLimited — лимит записывающих операций исчерпан. HTTP 429.
	// Единственный отказ, причину которого клиенту сообщать можно и нужно
	// (retry later); причины отказов аутентификации не различаются.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidArgument — некорректные входные данные. HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound — сущность не найдена. HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — конфликт уникальности (slug, номер главы, логин).
	// HTTP 409.
	ErrAlreadyExists = errors.New("already exists")

	// ErrPermissionDenied — действие запрещено этому принципалу
	// (чужой комментарий без роли администратора). HTTP 403.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidCursor — некорректный page_token. HTTP 400.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrInternal — прочие ошибки хранилища/инфраструктуры. HTTP 500.
	ErrInternal = errors.New("internal error")
)

// Service описывает бизнес-логику сервиса.
type Service struct {
	storage  storage.Storage
	cfg      config.AuthConfig
	telegram *auth.TelegramVerifier
	ccache   cache.CatalogCache // может быть nil, если кэш не сконфигурирован
	now      func() time.Time
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig) *Service {
	return &Service{
		storage:  storage,
		cfg:      cfg,
		telegram: auth.NewTelegramVerifier(cfg.TelegramBotToken, cfg.TelegramAuthMaxAge),
		now:      time.Now,
	}
}

// SetCatalogCache устанавливает кэш каталога (опционально).
func (s *Service) SetCatalogCache(c cache.CatalogCache) {
	s.ccache = c
}
