package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/savelevaik/go-manga-reader/internal/auth"
	"github.com/savelevaik/go-manga-reader/internal/config"
	"github.com/savelevaik/go-manga-reader/internal/models"
	"github.com/savelevaik/go-manga-reader/internal/ratelimit"
	"github.com/savelevaik/go-manga-reader/internal/service"
	"github.com/savelevaik/go-manga-reader/internal/storage"
)

const (
	testSecret   = "router-test-secret"
	testBotToken = "42:ROUTER-BOT"
	cookieName   = "session_token"
)

// memStorage — минимальная in-memory реализация storage.Storage
// для сквозных тестов роутера.
type memStorage struct {
	mu       sync.Mutex
	series   map[uuid.UUID]*models.Series
	chapters map[uuid.UUID]*models.Chapter
	comments map[uuid.UUID]*models.Comment
	admins   map[string]*models.AdminUser
}

func newMemStorage() *memStorage {
	return &memStorage{
		series:   make(map[uuid.UUID]*models.Series),
		chapters: make(map[uuid.UUID]*models.Chapter),
		comments: make(map[uuid.UUID]*models.Comment),
		admins:   make(map[string]*models.AdminUser),
	}
}

func (m *memStorage) SaveSeries(_ context.Context, s *models.Series) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.series {
		if e.Slug == s.Slug {
			return storage.ErrAlreadyExists
		}
	}
	cp := *s
	m.series[s.ID] = &cp
	return nil
}

func (m *memStorage) UpdateSeries(_ context.Context, s *models.Series) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.series[s.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *s
	m.series[s.ID] = &cp
	return nil
}

func (m *memStorage) DeleteSeries(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.series[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.series, id)
	return nil
}

func (m *memStorage) SeriesByID(_ context.Context, id uuid.UUID) (*models.Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.series[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStorage) ListSeries(_ context.Context, _ storage.ListParams) (*models.SeriesPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]models.Series, 0, len(m.series))
	for _, s := range m.series {
		items = append(items, *s)
	}
	return &models.SeriesPage{Items: items}, nil
}

func (m *memStorage) SaveChapter(_ context.Context, ch *models.Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.series[ch.SeriesID]; !ok {
		return storage.ErrNotFound
	}
	cp := *ch
	m.chapters[ch.ID] = &cp
	return nil
}

func (m *memStorage) DeleteChapter(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chapters[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.chapters, id)
	return nil
}

func (m *memStorage) ChapterByID(_ context.Context, id uuid.UUID) (*models.Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.chapters[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *ch
	return &cp, nil
}

func (m *memStorage) ChaptersBySeries(_ context.Context, seriesID uuid.UUID) ([]models.Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Chapter
	for _, ch := range m.chapters {
		if ch.SeriesID == seriesID {
			out = append(out, *ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *memStorage) SaveComment(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.series[c.SeriesID]; !ok {
		return storage.ErrNotFound
	}
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m *memStorage) CommentByID(_ context.Context, id uuid.UUID) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStorage) DeleteComment(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok || c.Deleted {
		return storage.ErrNotFound
	}
	c.Deleted = true
	return nil
}

func (m *memStorage) CommentsBySeries(_ context.Context, seriesID uuid.UUID, _ storage.ListParams) (*models.CommentPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []models.Comment
	for _, c := range m.comments {
		if c.SeriesID == seriesID && !c.Deleted {
			items = append(items, *c)
		}
	}
	return &models.CommentPage{Items: items}, nil
}

func (m *memStorage) SaveAdmin(_ context.Context, a *models.AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[a.Login]; ok {
		return storage.ErrAlreadyExists
	}
	cp := *a
	m.admins[a.Login] = &cp
	return nil
}

func (m *memStorage) AdminByLogin(_ context.Context, login string) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[login]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStorage) UpdateAdminPassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.ID == id {
			a.PasswordHash = hash
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStorage) Close() {}

type env struct {
	router  http.Handler
	storage *memStorage
	svc     *service.Service
}

func newEnv(t *testing.T, limit int) *env {
	t.Helper()

	st := newMemStorage()
	svc := service.New(st, config.AuthConfig{
		SessionSecret:      testSecret,
		SessionTTL:         time.Hour,
		AdminTokenTTL:      time.Hour,
		CookieName:         cookieName,
		TelegramBotToken:   testBotToken,
		TelegramAuthMaxAge: time.Hour,
	})

	router := NewRouter(svc,
		auth.New(testSecret),
		ratelimit.New(limit, time.Minute),
		Options{
			Logger:     slog.New(slog.DiscardHandler),
			Timeout:    5 * time.Second,
			CookieName: cookieName,
		})

	return &env{router: router, storage: st, svc: svc}
}

func (e *env) do(t *testing.T, method, path string, body any, mod func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	if mod != nil {
		mod(req)
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func withCookie(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func signTelegram(botToken string, data *auth.TelegramAuthData) {
	pairs := []string{
		fmt.Sprintf("auth_date=%d", data.AuthDate),
		fmt.Sprintf("id=%d", data.ID),
	}
	if data.FirstName != "" {
		pairs = append(pairs, "first_name="+data.FirstName)
	}
	if data.Username != "" {
		pairs = append(pairs, "username="+data.Username)
	}
	sort.Strings(pairs)

	key := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, key[:])
	mac.Write([]byte(strings.Join(pairs, "\n")))
	data.Hash = hex.EncodeToString(mac.Sum(nil))
}

func readerToken(t *testing.T, userID int64) string {
	t.Helper()
	token, err := auth.Sign(auth.Claims{UserID: userID, Username: "reader"}, []byte(testSecret))
	require.NoError(t, err)
	return token
}

func seedSeries(t *testing.T, e *env, slug string) *models.Series {
	t.Helper()
	s, err := e.svc.CreateSeries(context.Background(), service.SeriesInput{Title: "T " + slug, Slug: slug})
	require.NoError(t, err)
	return s
}

func seedAdmin(t *testing.T, e *env, login, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, e.storage.SaveAdmin(context.Background(), &models.AdminUser{
		ID:           uuid.New(),
		Login:        login,
		PasswordHash: string(hash),
	}))
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestRouter_PublicCatalogReads(t *testing.T) {
	e := newEnv(t, 5)
	s := seedSeries(t, e, "public")

	rr := e.do(t, http.MethodGet, "/series", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, http.MethodGet, "/series/"+s.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, http.MethodGet, "/series/"+uuid.NewString(), nil, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "not found", errorBody(t, rr))

	rr = e.do(t, http.MethodGet, "/series/not-a-uuid", nil, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_TelegramLogin_SetsHttpOnlyCookie(t *testing.T) {
	e := newEnv(t, 5)

	data := auth.TelegramAuthData{ID: 1001, FirstName: "Ivan", Username: "ivan", AuthDate: time.Now().Unix()}
	signTelegram(testBotToken, &data)

	rr := e.do(t, http.MethodPost, "/auth/telegram", data, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, cookieName, cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	require.NotEmpty(t, cookies[0].Value)

	// Выданная кука открывает записывающие операции.
	s := seedSeries(t, e, "after-login")
	rr = e.do(t, http.MethodPost, "/comments",
		map[string]any{"series_id": s.ID, "content": "first"},
		withCookie(cookies[0].Value))
	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestRouter_TelegramLogin_BadSignature(t *testing.T) {
	e := newEnv(t, 5)

	data := auth.TelegramAuthData{ID: 1001, FirstName: "Ivan", AuthDate: time.Now().Unix()}
	data.Hash = strings.Repeat("a", 64)

	rr := e.do(t, http.MethodPost, "/auth/telegram", data, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "unauthenticated", errorBody(t, rr))
}

func TestRouter_CommentsRequireAuth(t *testing.T) {
	e := newEnv(t, 5)
	s := seedSeries(t, e, "guarded")

	body := map[string]any{"series_id": s.ID, "content": "anon"}

	rr := e.do(t, http.MethodPost, "/comments", body, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "unauthenticated", errorBody(t, rr))

	rr = e.do(t, http.MethodPost, "/comments", body, withCookie("tampered.token.here"))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "unauthenticated", errorBody(t, rr))

	rr = e.do(t, http.MethodPost, "/comments", body, withCookie(readerToken(t, 5)))
	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestRouter_WriteRateLimit(t *testing.T) {
	e := newEnv(t, 3)
	s := seedSeries(t, e, "limited")
	token := readerToken(t, 8)

	body := map[string]any{"series_id": s.ID, "content": "spam"}

	for i := 0; i < 3; i++ {
		rr := e.do(t, http.MethodPost, "/comments", body, withCookie(token))
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := e.do(t, http.MethodPost, "/comments", body, withCookie(token))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "rate limit exceeded", errorBody(t, rr))

	// Чтение лимитером не ограничивается.
	rr = e.do(t, http.MethodGet, "/series", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// Другой принципал — своё окно.
	rr = e.do(t, http.MethodPost, "/comments", body, withCookie(readerToken(t, 9)))
	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestRouter_DeleteComment_OwnerOrAdmin(t *testing.T) {
	e := newEnv(t, 10)
	s := seedSeries(t, e, "moderated")

	author := readerToken(t, 1)

	rr := e.do(t, http.MethodPost, "/comments",
		map[string]any{"series_id": s.ID, "content": "to delete"}, withCookie(author))
	require.Equal(t, http.StatusCreated, rr.Code)

	var created models.Comment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	// Чужой пользователь — 403.
	rr = e.do(t, http.MethodDelete, "/comments/"+created.ID.String(), nil, withCookie(readerToken(t, 2)))
	require.Equal(t, http.StatusForbidden, rr.Code)

	// Автор — 204.
	rr = e.do(t, http.MethodDelete, "/comments/"+created.ID.String(), nil, withCookie(author))
	require.Equal(t, http.StatusNoContent, rr.Code)

	// Повторно — 404.
	rr = e.do(t, http.MethodDelete, "/comments/"+created.ID.String(), nil, withCookie(author))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_AdminFlow(t *testing.T) {
	e := newEnv(t, 10)
	seedAdmin(t, e, "root", "correct horse")

	// Неверный пароль — тот же 401, что и любой другой отказ.
	rr := e.do(t, http.MethodPost, "/admin/login",
		map[string]string{"login": "root", "password": "wrong"}, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "unauthenticated", errorBody(t, rr))

	rr = e.do(t, http.MethodPost, "/admin/login",
		map[string]string{"login": "root", "password": "correct horse"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	// Пользовательский токен на админском маршруте — 401.
	rr = e.do(t, http.MethodPost, "/admin/series",
		map[string]string{"title": "X", "slug": "x"}, withBearer(readerToken(t, 3)))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// Админский токен создаёт тайтл и главу.
	rr = e.do(t, http.MethodPost, "/admin/series",
		map[string]string{"title": "New Series", "slug": "new-series"}, withBearer(login.Token))
	require.Equal(t, http.StatusCreated, rr.Code)

	var created models.Series
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = e.do(t, http.MethodPost, "/admin/chapters", map[string]any{
		"series_id": created.ID,
		"number":    1,
		"pages":     []string{"https://cdn.example/1.jpg"},
	}, withBearer(login.Token))
	require.Equal(t, http.StatusCreated, rr.Code)

	// Дубль slug — 409.
	rr = e.do(t, http.MethodPost, "/admin/series",
		map[string]string{"title": "Dup", "slug": "new-series"}, withBearer(login.Token))
	require.Equal(t, http.StatusConflict, rr.Code)

	// Удаление тайтла — 204.
	rr = e.do(t, http.MethodDelete, "/admin/series/"+created.ID.String(), nil, withBearer(login.Token))
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRouter_ChangeAdminPassword(t *testing.T) {
	e := newEnv(t, 10)
	seedAdmin(t, e, "root", "old-password")

	rr := e.do(t, http.MethodPost, "/admin/login",
		map[string]string{"login": "root", "password": "old-password"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))

	rr = e.do(t, http.MethodPatch, "/admin/password", map[string]string{
		"current_password": "old-password",
		"new_password":     "brand-new-password",
	}, withBearer(login.Token))
	require.Equal(t, http.StatusNoContent, rr.Code)

	// Старый пароль больше не работает.
	rr = e.do(t, http.MethodPost, "/admin/login",
		map[string]string{"login": "root", "password": "old-password"}, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = e.do(t, http.MethodPost, "/admin/login",
		map[string]string{"login": "root", "password": "brand-new-password"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_Logout_ClearsCookie(t *testing.T) {
	e := newEnv(t, 5)

	rr := e.do(t, http.MethodPost, "/auth/logout", nil, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, cookieName, cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.Negative(t, cookies[0].MaxAge)
}

func TestRouter_UnknownFieldsRejected(t *testing.T) {
	e := newEnv(t, 5)
	s := seedSeries(t, e, "strict")

	rr := e.do(t, http.MethodPost, "/comments",
		map[string]any{"series_id": s.ID, "content": "x", "author": "spoofed"},
		withCookie(readerToken(t, 4)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid argument", errorBody(t, rr))
}
