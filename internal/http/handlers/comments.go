package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/savelevaik/go-manga-reader/internal/http/apierrors"
)

// ListComments — GET /series/{id}/comments. Доступно без аутентификации.
func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	params, err := listParams(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	page, err := h.svc.CommentsBySeries(r.Context(), id, params)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

type createCommentRequest struct {
	SeriesID uuid.UUID `json:"series_id"`
	Content  string    `json:"content"`
}

// CreateComment — POST /comments. Автор берётся из проверенного токена;
// поле автора в теле запроса не существует по построению.
func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in createCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument("malformed body"))
		return
	}

	c, err := h.svc.CreateComment(r.Context(), p, in.SeriesID, in.Content)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// DeleteComment — DELETE /comments/{id}. Автору или администратору.
func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.DeleteComment(r.Context(), p, id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
