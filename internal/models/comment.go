package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment — комментарий под тайтлом. UserID — внешний идентификатор
// пользователя Telegram (числовой), Username — отображаемое имя на момент
// создания. Удаление мягкое: запись остаётся с Deleted=true.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	SeriesID  uuid.UUID `json:"series_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Deleted   bool      `json:"-"`
}

// CommentPage — страница комментариев с курсором.
type CommentPage struct {
	Items         []Comment `json:"items"`
	NextPageToken string    `json:"next_page_token,omitempty"`
}
