package models

import (
	"time"

	"github.com/google/uuid"
)

// Series — тайтл каталога (манга/манхва).
type Series struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CoverURL    string    `json:"cover_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SeriesPage — страница выдачи каталога с курсором для следующей страницы.
type SeriesPage struct {
	Items         []Series `json:"items"`
	NextPageToken string   `json:"next_page_token,omitempty"`
}
