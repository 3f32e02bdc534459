package models

import "time"

// TokenPair — пара токенов, выдаваемая при регистрации/входе/обновлении.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API; stateless,
//     его валидность определяется только подписью и сроком;
//   - RefreshToken — долгоживущий JWT, который клиент предъявляет для
//     выпуска новой пары; на сервере хранится хэш текущего значения;
//   - AccessExpiresAt/RefreshExpiresAt — моменты истечения (UTC).
type TokenPair struct {
	// AccessToken — JWT для авторизации запросов.
	AccessToken string
	// RefreshToken — JWT для обновления пары.
	RefreshToken string
	// AccessExpiresAt — время истечения access-токена (UTC).
	AccessExpiresAt time.Time
	// RefreshExpiresAt — время истечения refresh-токена (UTC).
	RefreshExpiresAt time.Time
}
