// http реализует внешний HTTP API auth-сервиса.
//
// Маршруты:
//
//	POST /auth/register — регистрация + автоматический вход;
//	POST /auth/login    — вход по username/email и паролю;
//	POST /auth/refresh  — ротация пары токенов по refresh-токену;
//	POST /auth/logout   — закрытие сессии (требует access-токен);
//	GET  /auth/me       — профиль текущего пользователя (требует access-токен).
//
// Токены доставляются двумя путями одновременно: HttpOnly-cookie для
// браузера и JSON-тело для нативных клиентов, которые cookie не используют.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/vidtube/auth-service/internal/errors"
	"github.com/vidtube/auth-service/internal/models"
	logctx "github.com/vidtube/auth-service/internal/pkg/log"
	"github.com/vidtube/auth-service/internal/service"
	"github.com/vidtube/auth-service/internal/transport/http/middleware"
)

// maxBodyBytes ограничивает размер тела запроса auth-эндпоинтов.
const maxBodyBytes = 1 << 20

// Handlers агрегирует зависимости HTTP-хендлеров.
type Handlers struct {
	svc          *service.Service
	cookieSecure bool
}

// NewHandlers создаёт набор хендлеров поверх доменного сервиса.
func NewHandlers(svc *service.Service, cookieSecure bool) *Handlers {
	return &Handlers{svc: svc, cookieSecure: cookieSecure}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// tokensResponse дублирует выпущенную пару в теле ответа для клиентов
// без cookie (мобильные приложения, межсервисные вызовы).
type tokensResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type authResponse struct {
	User   *models.User   `json:"user"`
	Tokens tokensResponse `json:"tokens"`
}

// register обрабатывает POST /auth/register.
// Успех — 201, профиль нового пользователя и открытая сессия.
func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeStrict(r, &req); err != nil {
		apierrors.WriteInvalidArgument(w, r)
		return
	}

	user, pair, err := h.svc.RegisterUser(r.Context(), req.Username, req.Email, req.FullName, req.Password)
	if err != nil {
		logctx.From(r.Context()).Warn("register_failed", slog.String("err", err.Error()))
		apierrors.WriteError(w, r, err)
		return
	}

	h.setAuthCookies(w, pair)
	writeJSON(w, http.StatusCreated, authResponse{User: user, Tokens: toTokensResponse(pair)})
}

// login обрабатывает POST /auth/login.
// В поле login принимается username или email.
func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeStrict(r, &req); err != nil {
		apierrors.WriteInvalidArgument(w, r)
		return
	}

	user, pair, err := h.svc.LoginUser(r.Context(), req.Login, req.Password)
	if err != nil {
		logctx.From(r.Context()).Warn("login_failed", slog.String("err", err.Error()))
		apierrors.WriteError(w, r, err)
		return
	}

	h.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, authResponse{User: user, Tokens: toTokensResponse(pair)})
}

// refresh обрабатывает POST /auth/refresh.
//
// Refresh-токен берётся из cookie refresh_token; при её отсутствии —
// из JSON-тела (клиенты без cookie). Отказ ротации стирает auth-cookie:
// старая пара в браузере заведомо бесполезна, пусть клиент логинится заново.
func (h *Handlers) refresh(w http.ResponseWriter, r *http.Request) {
	token := refreshTokenFromRequest(r)
	if token == "" {
		apierrors.WriteUnauthorized(w, r)
		return
	}

	pair, userID, err := h.svc.RefreshTokens(r.Context(), token)
	if err != nil {
		logctx.From(r.Context()).Warn("refresh_failed", slog.String("err", err.Error()))

		if errors.Is(err, service.ErrSessionStale) ||
			errors.Is(err, service.ErrInvalidToken) ||
			errors.Is(err, service.ErrTokenExpired) {
			h.clearAuthCookies(w)
		}

		apierrors.WriteError(w, r, err)
		return
	}

	logctx.From(r.Context()).Info("tokens_refreshed", slog.String("user_id", userID.String()))

	h.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, toTokensResponse(pair))
}

// logout обрабатывает POST /auth/logout (за Request Gate).
// Идемпотентен; всегда стирает auth-cookie.
func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		apierrors.WriteUnauthorized(w, r)
		return
	}

	if err := h.svc.Logout(r.Context(), user.ID); err != nil {
		logctx.From(r.Context()).Error("logout_failed", slog.String("err", err.Error()))
		apierrors.WriteError(w, r, err)
		return
	}

	logctx.From(r.Context()).Info("user_logged_out", slog.String("user_id", user.ID.String()))

	h.clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// me обрабатывает GET /auth/me (за Request Gate).
func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		apierrors.WriteUnauthorized(w, r)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		User *models.User `json:"user"`
	}{User: user})
}

// refreshTokenFromRequest извлекает refresh-токен: cookie, затем тело.
func refreshTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(middleware.CookieRefreshToken); err == nil && c.Value != "" {
		return c.Value
	}

	var req refreshRequest
	if err := decodeStrict(r, &req); err != nil {
		return ""
	}

	return req.RefreshToken
}

func toTokensResponse(pair *models.TokenPair) tokensResponse {
	return tokensResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

// decodeStrict читает JSON-тело с ограничением размера и запретом
// неизвестных полей: опечатка в имени поля — ошибка клиента, а не тихий ноль.
func decodeStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
