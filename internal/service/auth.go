package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/savelevaik/go-manga-reader/internal/auth"
	"github.com/savelevaik/go-manga-reader/internal/storage"
	"github.com/savelevaik/go-manga-reader/pkg/log"
)

// minPasswordLen — минимальная длина нового пароля администратора.
const minPasswordLen = 8

// SessionToken — выпущенный сессионный токен и срок его действия.
// ExpiresAt используется HTTP-слоем для атрибута Expires куки.
type SessionToken struct {
	Token     string
	ExpiresAt time.Time
}

// TelegramLogin проверяет данные Telegram Login Widget и выпускает
// сессионный токен читателя.
//
// Любая причина отказа (битый hash, чужой бот, протухший auth_date)
// коллапсируется в ErrInvalidCredentials; детали остаются в debug-логе.
func (s *Service) TelegramLogin(ctx context.Context, data auth.TelegramAuthData) (*SessionToken, error) {
	const op = "service.auth.TelegramLogin"

	if err := s.telegram.Verify(data); err != nil {
		log.From(ctx).Debug("telegram_auth_rejected",
			slog.String("op", op),
			slog.String("reason", err.Error()),
		)
		return nil, ErrInvalidCredentials
	}

	name := strings.TrimSpace(data.FirstName + " " + data.LastName)
	expiresAt := s.now().Add(s.cfg.SessionTTL)

	token, err := auth.Sign(auth.Claims{
		UserID:   data.ID,
		Name:     name,
		Username: data.Username,
		Exp:      expiresAt.Unix(),
	}, []byte(s.cfg.SessionSecret))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return &SessionToken{Token: token, ExpiresAt: expiresAt}, nil
}

// AdminLogin проверяет логин/пароль администратора и выпускает
// административный токен (Role=admin, короткий TTL).
//
// "Логин не найден" и "пароль не подошёл" неразличимы для клиента.
func (s *Service) AdminLogin(ctx context.Context, login, password string) (*SessionToken, error) {
	const op = "service.auth.AdminLogin"

	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	admin, err := s.storage.AdminByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.From(ctx).Debug("admin_login_rejected",
				slog.String("op", op),
				slog.String("reason", "unknown login"),
			)
			return nil, ErrInvalidCredentials
		}

		log.From(ctx).Error("admin lookup failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		log.From(ctx).Debug("admin_login_rejected",
			slog.String("op", op),
			slog.String("reason", "password mismatch"),
		)
		return nil, ErrInvalidCredentials
	}

	expiresAt := s.now().Add(s.cfg.AdminTokenTTL)

	token, err := auth.Sign(auth.Claims{
		Username: admin.Login,
		Role:     auth.RoleAdmin,
		Exp:      expiresAt.Unix(),
	}, []byte(s.cfg.SessionSecret))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return &SessionToken{Token: token, ExpiresAt: expiresAt}, nil
}

// ChangeAdminPassword меняет пароль администратора после проверки текущего.
// Новый пароль хэшируется bcrypt с дефолтной стоимостью.
func (s *Service) ChangeAdminPassword(ctx context.Context, login, current, next string) error {
	const op = "service.auth.ChangeAdminPassword"

	if len(next) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidArgument, minPasswordLen)
	}

	admin, err := s.storage.AdminByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidCredentials
		}

		log.From(ctx).Error("admin lookup failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(current)); err != nil {
		log.From(ctx).Debug("password_change_rejected",
			slog.String("op", op),
			slog.String("reason", "current password mismatch"),
		)
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if err := s.storage.UpdateAdminPassword(ctx, admin.ID, string(hash)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidCredentials
		}

		log.From(ctx).Error("password update failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return nil
}
