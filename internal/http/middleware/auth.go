package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/savelevaik/go-manga-reader/internal/auth"
	"github.com/savelevaik/go-manga-reader/internal/http/apierrors"
)

// Session требует аутентифицированного пользователя: токен берётся из куки
// cookieName или из заголовка Authorization (Bearer). Любой отказ — единый
// 401 без уточнения причины; успешный Principal кладётся в контекст.
func Session(a *auth.Authenticator, cookieName string) Middleware {
	return requireAuth(cookieName, a.Authenticate)
}

// Admin — как Session, но дополнительно требует роль администратора.
// Токен без роли admin получает тот же 401, что и битый токен.
func Admin(a *auth.Authenticator, cookieName string) Middleware {
	return requireAuth(cookieName, a.AuthenticateAdmin)
}

func requireAuth(cookieName string, authenticate func(context.Context, string) (*auth.Principal, error)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := authenticate(r.Context(), extractToken(r, cookieName))
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxPrincipal, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken достаёт сырой токен из куки либо из Authorization: Bearer.
// Кука в приоритете (браузерные клиенты); пустая строка означает "токена нет"
// и дальше отклоняется аутентификатором.
func extractToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}

	return ""
}

// PrincipalFromContext возвращает принципала текущего запроса.
// Отсутствие принципала за Session/Admin — программная ошибка маршрутизации.
func PrincipalFromContext(ctx context.Context) (*auth.Principal, bool) {
	p, ok := ctx.Value(ctxPrincipal).(*auth.Principal)
	return p, ok
}
