// auth реализует ядро аутентификации: кодек компактного подписанного
// токена, проверку подписи HMAC-SHA-256 и сессионный аутентификатор
// поверх них, а также проверку входа через Telegram Login Widget.
//
// Контракт аутентификатора намеренно "схлопывает" все причины отказа
// (нет токена, битая структура, неверная подпись, истёк срок, не та роль,
// не задан секрет) в одну наблюдаемую ошибку ErrUnauthenticated: различие
// причин — оракул для перебора токенов. Конкретная причина пишется
// в request-scoped лог на уровне Debug.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/savelevaik/go-manga-reader/pkg/log"
)

var (
	// ErrUnauthenticated — единственный наружный результат любой неуспешной
	// проверки токена. Транспорт маппит её в HTTP 401.
	ErrUnauthenticated = errors.New("unauthenticated")

	// errExpired и errWrongRole — внутренние причины, наружу не выходят.
	errExpired   = errors.New("token expired")
	errWrongRole = errors.New("insufficient role")
	errNoToken   = errors.New("no token")
	errNoSecret  = errors.New("secret is not configured")
)

// RoleAdmin — значение клейма role у административных токенов.
const RoleAdmin = "admin"

// Principal — проверенная личность, результат успешной аутентификации.
// Создаётся только из проверенных клеймов и нигде ядром не сохраняется.
type Principal struct {
	UserID   int64
	Name     string
	Username string
	Role     string
}

// IsAdmin сообщает, является ли принципал администратором.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Authenticator проверяет сессионные токены. Каждый вызов независим,
// состояния между вызовами нет; экземпляр безопасен для конкурентного
// использования.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

// Option настраивает Authenticator.
type Option func(*Authenticator)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// New создаёт аутентификатор с общим секретом. Пустой секрет допустим
// на этапе конструирования, но любая проверка с ним закончится
// ErrUnauthenticated (fail closed, не fail open).
func New(secret string, opts ...Option) *Authenticator {
	a := &Authenticator{
		secret: []byte(secret),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Authenticate проверяет пользовательский токен и возвращает принципала.
// Любой отказ — ErrUnauthenticated, без уточнения причины.
func (a *Authenticator) Authenticate(ctx context.Context, rawToken string) (*Principal, error) {
	return a.authenticate(ctx, rawToken, false)
}

// AuthenticateAdmin — то же, что Authenticate, но дополнительно требует
// клейм role == "admin". Токен без роли или с другой ролью отклоняется.
func (a *Authenticator) AuthenticateAdmin(ctx context.Context, rawToken string) (*Principal, error) {
	return a.authenticate(ctx, rawToken, true)
}

func (a *Authenticator) authenticate(ctx context.Context, rawToken string, requireAdmin bool) (*Principal, error) {
	const op = "auth.Authenticator.authenticate"

	claims, err := a.check(rawToken, requireAdmin)
	if err != nil {
		// Причину оставляем себе: наружу уходит только факт отказа.
		log.From(ctx).Debug("token_rejected",
			slog.String("op", op),
			slog.String("reason", err.Error()),
		)

		return nil, ErrUnauthenticated
	}

	return &Principal{
		UserID:   claims.UserID,
		Name:     claims.Name,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

// check — вся политика проверки в одном месте; возвращает внутреннюю
// причину отказа.
func (a *Authenticator) check(rawToken string, requireAdmin bool) (*Claims, error) {
	if rawToken == "" {
		return nil, errNoToken
	}

	if len(a.secret) == 0 {
		return nil, errNoSecret
	}

	claims, err := decodeAndVerify(rawToken, a.secret)
	if err != nil {
		return nil, err
	}

	// exp сравнивается с часами на момент проверки, не кэшируется;
	// просроченный токен отклоняется независимо от подписи.
	if claims.Exp != 0 && claims.Exp < a.now().Unix() {
		return nil, errExpired
	}

	if requireAdmin && claims.Role != RoleAdmin {
		return nil, errWrongRole
	}

	return claims, nil
}
