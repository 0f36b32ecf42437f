package middleware

import (
	"hash/fnv"
	"net/http"

	"github.com/savelevaik/go-manga-reader/internal/auth"
	"github.com/savelevaik/go-manga-reader/internal/http/apierrors"
	"github.com/savelevaik/go-manga-reader/internal/ratelimit"
	"github.com/savelevaik/go-manga-reader/internal/service"
)

// RateLimit ограничивает записывающие операции принципала. Ставится строго
// после Session/Admin: ключ — идентичность из проверенного токена, анонимных
// ключей не бывает. Отказ лимитера — единственный отказ, причину которого
// клиенту сообщают (429, retry later).
func RateLimit(l *ratelimit.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				// Маршрут собран неверно: лимитер без аутентификации.
				apierrors.WriteError(w, r, auth.ErrUnauthenticated)
				return
			}

			if !l.Allow(limiterKey(p)) {
				apierrors.WriteError(w, r, service.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// limiterKey — числовой ключ принципала. У читателей это Telegram ID;
// у административных токенов UserID нулевой, поэтому ключ строится
// из логина, чтобы администраторы не делили одно окно.
func limiterKey(p *auth.Principal) int64 {
	if p.UserID != 0 {
		return p.UserID
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte("admin:" + p.Username))
	return int64(h.Sum64())
}
