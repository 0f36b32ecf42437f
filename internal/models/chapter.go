package models

import (
	"time"

	"github.com/google/uuid"
)

// Chapter — глава тайтла. Pages хранит упорядоченный список URL страниц.
// Number — float, чтобы поддерживать промежуточные главы (10.5 и т.п.).
type Chapter struct {
	ID        uuid.UUID `json:"id"`
	SeriesID  uuid.UUID `json:"series_id"`
	Number    float64   `json:"number"`
	Title     string    `json:"title,omitempty"`
	Pages     []string  `json:"pages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
