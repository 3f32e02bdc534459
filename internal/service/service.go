// service содержит бизнес-логику auth-сервиса:
// регистрацию/аутентификацию пользователей, выпуск/ротацию токенов
// и работу с хранилищем через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются типизированно и маппятся
//     транспортом на HTTP-статусы (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"
	"time"

	"github.com/vidtube/auth-service/internal/cache"
	"github.com/vidtube/auth-service/internal/config"
	"github.com/vidtube/auth-service/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	// Обе причины намеренно неразличимы снаружи. Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен (access/refresh) некорректен по формату/подписи.
	// Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк.
	// Транспорт: HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrSessionStale — refresh-токен корректен по подписи, но не совпадает
	// с текущим сохранённым значением: он уже ротирован или отозван
	// (в том числе признак replay). Клиент обязан войти заново.
	// Транспорт: HTTP 401.
	ErrSessionStale = errors.New("session stale")

	// ErrUserNotFound — пользователь из валидного токена больше не существует.
	// Транспорт: HTTP 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrLoginTaken — username или email уже заняты другим пользователем.
	// Причина намеренно не уточняется. Транспорт: HTTP 409.
	ErrLoginTaken = errors.New("username or email already taken")

	// ErrInvalidEmail — email имеет некорректный формат.
	// Транспорт: HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidUsername — username не проходит политику формата.
	// Транспорт: HTTP 400.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrEmptyFullName — отображаемое имя пустое.
	// Транспорт: HTTP 400.
	ErrEmptyFullName = errors.New("full name is empty")

	// ErrEmptyLogin — идентификатор входа пустой.
	// Транспорт: HTTP 400.
	ErrEmptyLogin = errors.New("login is empty")

	// ErrWeakPassword — пароль не удовлетворяет политикам сложности.
	// Транспорт: HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой.
	// Транспорт: HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
	scache  cache.SessionCache // может быть nil, если кэш не сконфигурирован

	// now — источник времени для выпуска и проверки токенов;
	// подменяется в тестах для проверки границ истечения.
	now func() time.Time
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetSessionCache устанавливает кэш refresh-сессий (опционально).
func (s *Service) SetSessionCache(c cache.SessionCache) {
	s.scache = c
}
