// errors стандартизирует ответы об ошибках HTTP-слоя auth-сервиса.
// На вход он принимает ошибку доменного слоя (service), а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Маппинг:
//   - ошибки валидации (пустой логин/пароль, формат email/username) -> 400;
//   - ErrInvalidCredentials/ErrInvalidToken/ErrTokenExpired/ErrSessionStale -> 401;
//   - ErrUserNotFound -> 404;
//   - ErrLoginTaken -> 409;
//   - прочее -> 500 с нейтральным сообщением (детали остаются в логах).
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vidtube/auth-service/internal/service"
)

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку доменного слоя в HTTP-статус и
// унифицированный ответ для фронта.
//
// err == nil — это программная ошибка вызова: возвращаем 500/internal,
// чтобы не послать "200 OK" с телом ошибки и не маскировать баг.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, envelope("internal", "internal error")
	}

	switch {
	case errors.Is(err, service.ErrEmptyLogin),
		errors.Is(err, service.ErrEmptyPassword),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrEmptyFullName):
		return http.StatusBadRequest, envelope("invalid_argument", "invalid argument")

	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, envelope("invalid_credentials", "invalid credentials")

	case errors.Is(err, service.ErrSessionStale):
		// Отдельный код: клиент должен понять, что refresh-токен
		// ротирован и требуется повторный вход.
		return http.StatusUnauthorized, envelope("session_stale", "session expired or already used")

	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, envelope("unauthenticated", "unauthenticated")

	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, envelope("not_found", "not found")

	case errors.Is(err, service.ErrLoginTaken):
		return http.StatusConflict, envelope("already_exists", "already exists")

	default:
		return http.StatusInternalServerError, envelope("internal", "internal error")
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)
	write(w, r, status, resp)
}

// WriteUnauthorized пишет единый 401-ответ Request Gate:
// конкретная причина (нет токена/подпись/срок) различима только в логах.
func WriteUnauthorized(w http.ResponseWriter, r *http.Request) {
	write(w, r, http.StatusUnauthorized, envelope("unauthenticated", "unauthenticated"))
}

// WriteInvalidArgument пишет 400-ответ для локальных ошибок парсинга тела.
func WriteInvalidArgument(w http.ResponseWriter, r *http.Request) {
	write(w, r, http.StatusBadRequest, envelope("invalid_argument", "invalid argument"))
}

func envelope(code, msg string) ErrorResponse {
	return ErrorResponse{Error: APIError{Code: code, Message: msg}}
}

func write(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse) {
	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
