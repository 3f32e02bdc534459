package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vidtube/auth-service/internal/models"
	"github.com/vidtube/auth-service/internal/storage"
)

// PutSession безусловно записывает сессию пользователя (upsert).
// Предыдущая сессия, если была, вытесняется — на пользователя
// существует не более одной активной refresh-сессии.
func (s *Storage) PutSession(ctx context.Context, session *models.Session) error {
	const op = "storage.postgres.PutSession"

	query := `
        INSERT INTO sessions(user_id, token_hash, issued_at, expires_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id) DO UPDATE
        SET token_hash = EXCLUDED.token_hash,
            issued_at  = EXCLUDED.issued_at,
            expires_at = EXCLUDED.expires_at
    `

	_, err := s.db.Exec(ctx, query,
		session.UserID,
		session.TokenHash,
		session.IssuedAt,
		session.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SessionByUserID возвращает текущую сессию пользователя.
func (s *Storage) SessionByUserID(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	const op = "storage.postgres.SessionByUserID"

	query := `
        SELECT user_id, token_hash, issued_at, expires_at
        FROM sessions
        WHERE user_id = $1
    `

	var session models.Session
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&session.UserID,
		&session.TokenHash,
		&session.IssuedAt,
		&session.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &session, nil
}

// RotateSession атомарно заменяет refresh-сессию (compare-and-swap).
// Возвращает:
//
//	(true, nil)  — сохранённый хэш совпал с oldHash и заменён на новый;
//	(false, nil) — сессии нет или хэш не совпал (токен уже ротирован).
//
// Один UPDATE с условием по token_hash сериализует конкурентные
// refresh-вызовы для одного пользователя: из двух гонщиков с одним и
// тем же старым токеном условие выполнится ровно у одного.
func (s *Storage) RotateSession(ctx context.Context, userID uuid.UUID, oldHash string, next *models.Session) (bool, error) {
	const op = "storage.postgres.RotateSession"

	query := `
        UPDATE sessions
        SET token_hash = $3,
            issued_at  = $4,
            expires_at = $5
        WHERE user_id = $1 AND token_hash = $2
    `

	cmdTag, err := s.db.Exec(ctx, query,
		userID,
		oldHash,
		next.TokenHash,
		next.IssuedAt,
		next.ExpiresAt,
	)

	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

// DeleteSession удаляет сессию пользователя.
// Отсутствие записи не считается ошибкой — logout идемпотентен.
func (s *Storage) DeleteSession(ctx context.Context, userID uuid.UUID) error {
	const op = "storage.postgres.DeleteSession"

	query := `
        DELETE FROM sessions
        WHERE user_id = $1
    `

	if _, err := s.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteExpiredSessions удаляет все просроченные сессии.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	const op = "storage.postgres.DeleteExpiredSessions"

	query := `
        DELETE FROM sessions
        WHERE expires_at <= $1
    `

	if _, err := s.db.Exec(ctx, query, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
