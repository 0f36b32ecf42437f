package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/savelevaik/go-manga-reader/internal/http/apierrors"
	"github.com/savelevaik/go-manga-reader/internal/service"
)

// ListSeries — GET /series.
func (h *Handlers) ListSeries(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	page, err := h.svc.ListSeries(r.Context(), params)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GetSeries — GET /series/{id}.
func (h *Handlers) GetSeries(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	series, err := h.svc.SeriesByID(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, series)
}

// ListChapters — GET /series/{id}/chapters.
func (h *Handlers) ListChapters(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	chapters, err := h.svc.ChaptersBySeries(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chapters)
}

// GetChapter — GET /chapters/{id}. Отдаёт главу со списком страниц.
func (h *Handlers) GetChapter(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	ch, err := h.svc.ChapterByID(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ch)
}

type seriesRequest struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
}

func (in seriesRequest) toInput() service.SeriesInput {
	return service.SeriesInput{
		Title:       in.Title,
		Slug:        in.Slug,
		Description: in.Description,
		CoverURL:    in.CoverURL,
	}
}

// CreateSeries — POST /admin/series.
func (h *Handlers) CreateSeries(w http.ResponseWriter, r *http.Request) {
	var in seriesRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument("malformed body"))
		return
	}

	series, err := h.svc.CreateSeries(r.Context(), in.toInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, series)
}

// UpdateSeries — PUT /admin/series/{id}.
func (h *Handlers) UpdateSeries(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in seriesRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument("malformed body"))
		return
	}

	series, err := h.svc.UpdateSeries(r.Context(), id, in.toInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, series)
}

// DeleteSeries — DELETE /admin/series/{id}.
func (h *Handlers) DeleteSeries(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.DeleteSeries(r.Context(), id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type chapterRequest struct {
	SeriesID uuid.UUID `json:"series_id"`
	Number   float64   `json:"number"`
	Title    string    `json:"title,omitempty"`
	Pages    []string  `json:"pages"`
}

// CreateChapter — POST /admin/chapters.
func (h *Handlers) CreateChapter(w http.ResponseWriter, r *http.Request) {
	var in chapterRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument("malformed body"))
		return
	}

	ch, err := h.svc.CreateChapter(r.Context(), service.ChapterInput{
		SeriesID: in.SeriesID,
		Number:   in.Number,
		Title:    in.Title,
		Pages:    in.Pages,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ch)
}

// DeleteChapter — DELETE /admin/chapters/{id}.
func (h *Handlers) DeleteChapter(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.DeleteChapter(r.Context(), id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
