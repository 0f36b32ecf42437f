package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/savelevaik/go-manga-reader/internal/models"
	"github.com/savelevaik/go-manga-reader/internal/storage"
)

func seedAdmin(t *testing.T, st *Storage, login string) *models.AdminUser {
	t.Helper()
	now := time.Now().UTC()
	a := &models.AdminUser{
		ID:           uuid.New(),
		Login:        login,
		PasswordHash: "bcrypt-hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.SaveAdmin(context.Background(), a))
	return a
}

func TestIntegration_SaveAdmin_And_GetByLogin_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	a := seedAdmin(t, st, "root")

	got, err := st.AdminByLogin(context.Background(), "root")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
	require.Equal(t, "bcrypt-hash", got.PasswordHash)
}

func TestIntegration_SaveAdmin_DuplicateLogin(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	seedAdmin(t, st, "dup")

	a := &models.AdminUser{
		ID:           uuid.New(),
		Login:        "dup",
		PasswordHash: "other",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.ErrorIs(t, st.SaveAdmin(context.Background(), a), storage.ErrAlreadyExists)
}

func TestIntegration_AdminByLogin_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.AdminByLogin(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_UpdateAdminPassword(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	a := seedAdmin(t, st, "rotate")

	require.NoError(t, st.UpdateAdminPassword(ctx, a.ID, "new-hash"))

	got, err := st.AdminByLogin(ctx, "rotate")
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)

	require.ErrorIs(t, st.UpdateAdminPassword(ctx, uuid.New(), "x"), storage.ErrNotFound)
}
