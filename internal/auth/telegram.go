package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Проверка данных Telegram Login Widget.
//
// Схема фиксирована протоколом виджета: ключ — SHA256(bot_token),
// data-check-string — отсортированные строки "key=value" всех полей,
// кроме hash, соединённые '\n'; ожидаемый hash — hex(HMAC-SHA-256).

var (
	// ErrTelegramAuth — данные виджета не прошли проверку (битый hash,
	// отсутствующие поля или слишком старый auth_date).
	ErrTelegramAuth = errors.New("telegram auth data rejected")
)

// TelegramAuthData — поля, которые виджет передаёт на callback.
type TelegramAuthData struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	AuthDate  int64  `json:"auth_date"`
	Hash      string `json:"hash"`
}

// TelegramVerifier проверяет подпись данных виджета для одного бота.
type TelegramVerifier struct {
	secretKey []byte // SHA256(bot_token)
	maxAge    time.Duration
	now       func() time.Time
}

// NewTelegramVerifier создаёт верификатор для токена бота.
// maxAge <= 0 отключает проверку свежести auth_date.
func NewTelegramVerifier(botToken string, maxAge time.Duration) *TelegramVerifier {
	key := sha256.Sum256([]byte(botToken))

	return &TelegramVerifier{
		secretKey: key[:],
		maxAge:    maxAge,
		now:       time.Now,
	}
}

// Verify проверяет подпись и свежесть данных виджета.
func (v *TelegramVerifier) Verify(data TelegramAuthData) error {
	if data.Hash == "" || data.ID == 0 {
		return ErrTelegramAuth
	}

	got, err := hex.DecodeString(data.Hash)
	if err != nil {
		return ErrTelegramAuth
	}

	mac := hmac.New(sha256.New, v.secretKey)
	mac.Write([]byte(v.checkString(data)))
	expected := mac.Sum(nil)

	if !hmac.Equal(got, expected) {
		return ErrTelegramAuth
	}

	if v.maxAge > 0 {
		issued := time.Unix(data.AuthDate, 0)
		if v.now().Sub(issued) > v.maxAge {
			return ErrTelegramAuth
		}
	}

	return nil
}

// checkString собирает data-check-string: все непустые поля, кроме hash,
// в лексикографическом порядке ключей.
func (v *TelegramVerifier) checkString(data TelegramAuthData) string {
	pairs := []string{
		fmt.Sprintf("auth_date=%d", data.AuthDate),
		fmt.Sprintf("id=%d", data.ID),
	}

	if data.FirstName != "" {
		pairs = append(pairs, "first_name="+data.FirstName)
	}
	if data.LastName != "" {
		pairs = append(pairs, "last_name="+data.LastName)
	}
	if data.Username != "" {
		pairs = append(pairs, "username="+data.Username)
	}
	if data.PhotoURL != "" {
		pairs = append(pairs, "photo_url="+data.PhotoURL)
	}

	sort.Strings(pairs)

	return strings.Join(pairs, "\n")
}
