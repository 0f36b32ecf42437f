package handlers

import (
	"net/http"
	"time"

	"github.com/savelevaik/go-manga-reader/internal/auth"
	"github.com/savelevaik/go-manga-reader/internal/http/apierrors"
)

// loginResponse — тело ответа на успешный вход.
type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TelegramLogin — POST /auth/telegram. Принимает payload Telegram Login
// Widget, проверяет подпись и выпускает сессионный токен: ставит его в
// HttpOnly-куку и дублирует в теле для не-браузерных клиентов.
func (h *Handlers) TelegramLogin(w http.ResponseWriter, r *http.Request) {
	var in auth.TelegramAuthData
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument("malformed body"))
		return
	}

	session, err := h.svc.TelegramLogin(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	writeJSON(w, http.StatusOK, loginResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

// Logout — POST /auth/logout. Сессии stateless, поэтому logout — это
// только сброс куки на клиенте; сервер ничего не инвалидирует.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

type adminLoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AdminLogin — POST /admin/login. Возвращает административный токен в теле;
// админка не браузерная, куку не ставим.
func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var in adminLoginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument("malformed body"))
		return
	}

	session, err := h.svc.AdminLogin(r.Context(), in.Login, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangeAdminPassword — PATCH /admin/password. Логин берётся из проверенного
// токена, не из тела.
func (h *Handlers) ChangeAdminPassword(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in changePasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument("malformed body"))
		return
	}

	if err := h.svc.ChangeAdminPassword(r.Context(), p.Username, in.CurrentPassword, in.NewPassword); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
