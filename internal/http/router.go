// http собирает публичный HTTP-роутер сервиса: middleware-цепочку,
// публичные маршруты каталога и комментариев, маршруты входа и
// административную группу.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/savelevaik/go-manga-reader/internal/auth"
	"github.com/savelevaik/go-manga-reader/internal/http/handlers"
	"github.com/savelevaik/go-manga-reader/internal/http/middleware"
	"github.com/savelevaik/go-manga-reader/internal/ratelimit"
	"github.com/savelevaik/go-manga-reader/internal/service"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger       *slog.Logger
	Timeout      time.Duration
	CookieName   string
	SecureCookie bool
	// Metrics опциональны: nil отключает сбор HTTP-метрик (в тестах).
	Metrics *middleware.HTTPMetrics
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, authn *auth.Authenticator, limiter *ratelimit.Limiter, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Metrics != nil {
		root.Use(opts.Metrics.Middleware())
	}
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc, opts.CookieName, opts.SecureCookie)

	session := middleware.Session(authn, opts.CookieName)
	admin := middleware.Admin(authn, opts.CookieName)
	limited := middleware.RateLimit(limiter)

	// Вход/выход.
	root.Post("/auth/telegram", h.TelegramLogin)
	root.Post("/auth/logout", h.Logout)

	// Публичное чтение каталога и комментариев.
	root.Get("/series", h.ListSeries)
	root.Get("/series/{id}", h.GetSeries)
	root.Get("/series/{id}/chapters", h.ListChapters)
	root.Get("/series/{id}/comments", h.ListComments)
	root.Get("/chapters/{id}", h.GetChapter)

	// Записывающие операции читателей: аутентификация + лимитер.
	root.Group(func(r chi.Router) {
		r.Use(session, limited)

		r.Post("/comments", h.CreateComment)
		r.Delete("/comments/{id}", h.DeleteComment)
	})

	// Админка. Логин открыт, остальное — за админским токеном;
	// мутации каталога тоже проходят через лимитер.
	root.Post("/admin/login", h.AdminLogin)

	root.Group(func(r chi.Router) {
		r.Use(admin, limited)

		r.Patch("/admin/password", h.ChangeAdminPassword)

		r.Post("/admin/series", h.CreateSeries)
		r.Put("/admin/series/{id}", h.UpdateSeries)
		r.Delete("/admin/series/{id}", h.DeleteSeries)

		r.Post("/admin/chapters", h.CreateChapter)
		r.Delete("/admin/chapters/{id}", h.DeleteChapter)
	})

	return root
}
