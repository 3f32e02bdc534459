package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/auth-service/internal/models"
	"github.com/vidtube/auth-service/internal/storage"
)

// Интеграционные тесты репозитория session.go: upsert одной сессии на
// пользователя, compare-and-swap ротация, идемпотентный delete и чистка
// просроченных записей. Контейнер и миграции — см. user_test.go.

func newSession(userID uuid.UUID, hash string, ttl time.Duration) *models.Session {
	now := time.Now().UTC()
	return &models.Session{
		UserID:    userID,
		TokenHash: hash,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// TestIntegration_PutSession_UpsertReplacesPrevious — повторный PutSession
// для того же пользователя вытесняет предыдущую сессию, запись остаётся одна.
func TestIntegration_PutSession_UpsertReplacesPrevious(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := mustSaveUser(t, st, "alice", "alice@example.com")

	require.NoError(t, st.PutSession(ctx, newSession(u.ID, "hash-1", time.Hour)))
	require.NoError(t, st.PutSession(ctx, newSession(u.ID, "hash-2", time.Hour)))

	got, err := st.SessionByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "hash-2", got.TokenHash)
}

// TestIntegration_RotateSession_CAS — ротация срабатывает только при
// совпадении сохранённого хэша; повтор со старым хэшем возвращает false.
func TestIntegration_RotateSession_CAS(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := mustSaveUser(t, st, "alice", "alice@example.com")

	require.NoError(t, st.PutSession(ctx, newSession(u.ID, "hash-old", time.Hour)))

	swapped, err := st.RotateSession(ctx, u.ID, "hash-old", newSession(u.ID, "hash-new", time.Hour))
	require.NoError(t, err)
	require.True(t, swapped)

	got, err := st.SessionByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "hash-new", got.TokenHash)

	// Replay: старый хэш больше не совпадает.
	swapped, err = st.RotateSession(ctx, u.ID, "hash-old", newSession(u.ID, "hash-x", time.Hour))
	require.NoError(t, err)
	require.False(t, swapped)

	// Сессия при этом не изменилась.
	got, err = st.SessionByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "hash-new", got.TokenHash)
}

// TestIntegration_RotateSession_NoSession — ротация без открытой сессии
// возвращает false без ошибки.
func TestIntegration_RotateSession_NoSession(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "alice", "alice@example.com")

	swapped, err := st.RotateSession(context.Background(), u.ID, "hash", newSession(u.ID, "hash-new", time.Hour))
	require.NoError(t, err)
	require.False(t, swapped)
}

// TestIntegration_DeleteSession_Idempotent — удаление открытой сессии и
// повторное удаление без записи завершаются без ошибки.
func TestIntegration_DeleteSession_Idempotent(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := mustSaveUser(t, st, "alice", "alice@example.com")

	require.NoError(t, st.PutSession(ctx, newSession(u.ID, "hash", time.Hour)))
	require.NoError(t, st.DeleteSession(ctx, u.ID))

	_, err := st.SessionByUserID(ctx, u.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Повтор — не ошибка.
	require.NoError(t, st.DeleteSession(ctx, u.ID))
}

// TestIntegration_DeleteExpiredSessions — чистка удаляет только просроченные записи.
func TestIntegration_DeleteExpiredSessions(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	expired := mustSaveUser(t, st, "alice", "alice@example.com")
	alive := mustSaveUser(t, st, "bob", "bob@example.com")

	require.NoError(t, st.PutSession(ctx, newSession(expired.ID, "hash-a", -time.Minute)))
	require.NoError(t, st.PutSession(ctx, newSession(alive.ID, "hash-b", time.Hour)))

	require.NoError(t, st.DeleteExpiredSessions(ctx, time.Now().UTC()))

	_, err := st.SessionByUserID(ctx, expired.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	got, err := st.SessionByUserID(ctx, alive.ID)
	require.NoError(t, err)
	require.Equal(t, "hash-b", got.TokenHash)
}

// TestIntegration_Sessions_CascadeOnUserDelete — удаление пользователя
// уносит его сессию (FK ON DELETE CASCADE).
func TestIntegration_Sessions_CascadeOnUserDelete(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := mustSaveUser(t, st, "alice", "alice@example.com")

	require.NoError(t, st.PutSession(ctx, newSession(u.ID, "hash", time.Hour)))

	_, err := st.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, u.ID)
	require.NoError(t, err)

	_, err = st.SessionByUserID(ctx, u.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}
