// handlers — REST-обработчики публичного HTTP-сервера: вход через
// Telegram и выход, каталог (тайтлы/главы), комментарии и админские
// операции. Обработчики тонкие: парсинг входа, вызов сервисного слоя,
// сериализация ответа; политика доступа живёт в мидлварах.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/savelevaik/go-manga-reader/internal/auth"
	"github.com/savelevaik/go-manga-reader/internal/http/middleware"
	"github.com/savelevaik/go-manga-reader/internal/service"
	"github.com/savelevaik/go-manga-reader/internal/storage"
)

// Handlers агрегирует зависимости обработчиков.
type Handlers struct {
	svc          *service.Service
	cookieName   string
	secureCookie bool
}

// New создаёт Handlers. secureCookie включает атрибут Secure у сессионной
// куки (выключается только в локальной среде без TLS).
func New(svc *service.Service, cookieName string, secureCookie bool) *Handlers {
	return &Handlers{
		svc:          svc,
		cookieName:   cookieName,
		secureCookie: secureCookie,
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// errInvalidArgument — локальная ошибка парсинга входа -> 400.
func errInvalidArgument(reason string) error {
	return fmt.Errorf("%w: %s", service.ErrInvalidArgument, reason)
}

// parseUUID разбирает path-параметр в UUID.
func parseUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errInvalidArgument("malformed id")
	}
	return id, nil
}

// listParams читает page_size/page_token из query.
func listParams(r *http.Request) (storage.ListParams, error) {
	var params storage.ListParams

	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return params, errInvalidArgument("page_size must be a non-negative integer")
		}

		params.PageSize = int32(n)
	}

	params.PageToken = r.URL.Query().Get("page_token")
	return params, nil
}

// principal достаёт принципала, положенного мидлваром Session/Admin.
// Его отсутствие означает, что маршрут собран без аутентификации.
func principal(r *http.Request) (*auth.Principal, error) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return nil, auth.ErrUnauthenticated
	}
	return p, nil
}
