// models содержит доменные сущности auth-сервиса.
// Эти типы используются слоями бизнес-логики, хранилища и транспорта.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User — учётная запись пользователя платформы.
//
// Инварианты:
//   - Username и Email глобально уникальны (уникальность обеспечивает БД,
//     регистронезависимо через CITEXT);
//   - PasswordHash хранит только bcrypt-хэш и никогда не сериализуется
//     наружу (json:"-").
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CoverURL     string    `json:"cover_url,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sanitized возвращает копию пользователя без секретных полей.
// Именно эта форма отдаётся транспортом и кладётся в контекст запроса.
func (u User) Sanitized() *User {
	c := u
	c.PasswordHash = ""
	return &c
}
