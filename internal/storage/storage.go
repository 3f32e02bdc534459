package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/auth-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/сессия).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (username/email).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
// Это граница Resource Store: регистрация создаёт запись, остальной
// код ядра только читает её.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByLogin находит пользователя по username или email
	// (обе колонки CITEXT, сравнение регистронезависимое).
	UserByLogin(ctx context.Context, login string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionStorage выполняет операции над refresh-сессиями.
// На пользователя существует не более одной сессии.
type SessionStorage interface {
	// PutSession безусловно записывает сессию пользователя,
	// вытесняя предыдущую (upsert).
	PutSession(ctx context.Context, session *models.Session) error
	// SessionByUserID возвращает текущую сессию пользователя.
	SessionByUserID(ctx context.Context, userID uuid.UUID) (*models.Session, error)
	// RotateSession атомарно заменяет сессию: хэш обновляется только
	// если текущее сохранённое значение равно oldHash (compare-and-swap).
	// Возвращает false, если сохранённый хэш не совпал или сессии нет.
	RotateSession(ctx context.Context, userID uuid.UUID, oldHash string, next *models.Session) (bool, error)
	// DeleteSession удаляет сессию пользователя; отсутствие записи —
	// не ошибка (идемпотентность logout).
	DeleteSession(ctx context.Context, userID uuid.UUID) error
	// DeleteExpiredSessions удаляет все просроченные сессии.
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	SessionStorage
	Close()
}
