package models

import (
	"time"

	"github.com/google/uuid"
)

// Session — единственная активная refresh-сессия пользователя.
//
// Описание:
//   - на одного пользователя существует не более одной записи
//     (PRIMARY KEY user_id в БД): выпуск нового refresh-токена
//     безусловно вытесняет предыдущий;
//   - TokenHash — SHA-256 от предъявляемого refresh-токена
//     (base64url); сам токен на сервере не хранится.
type Session struct {
	UserID    uuid.UUID
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
