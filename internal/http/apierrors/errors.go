// apierrors стандартизирует ответы об ошибках HTTP-слоя.
// На вход — ошибка сервисного слоя, на выход — корректный HTTP-статус
// и короткое безопасное message без утечки деталей.
//
// Формат тела фиксированный и плоский: {"error": "<message>"} плюс
// request_id для трассировки, если он есть в запросе. Причины отказа
// аутентификации никогда не детализируются: любой отказ — одинаковый
// 401 {"error":"unauthenticated"}.
package apierrors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/savelevaik/go-manga-reader/internal/auth"
	"github.com/savelevaik/go-manga-reader/internal/service"
)

// ErrorResponse — единый формат тела ошибки.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ToHTTP конвертирует ошибку сервисного слоя в HTTP-статус и тело ответа.
//
// err == nil — программная ошибка вызова: возвращаем 500/internal,
// чтобы не послать "200 OK" с телом ошибки и не маскировать баг.
func ToHTTP(err error) (int, ErrorResponse) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error"}

	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"}

	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"}

	case errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, service.ErrInvalidCursor):
		return http.StatusBadRequest, ErrorResponse{Error: "invalid argument"}

	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not found"}

	case errors.Is(err, service.ErrAlreadyExists):
		return http.StatusConflict, ErrorResponse{Error: "already exists"}

	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden, ErrorResponse{Error: "permission denied"}

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "deadline exceeded"}

	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error"}
	}
}

// WriteError — хелпер для HTTP-хендлеров: пишет статус/тело и прокидывает
// request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
