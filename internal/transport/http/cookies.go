package http

import (
	"net/http"
	"time"

	"github.com/vidtube/auth-service/internal/models"
	"github.com/vidtube/auth-service/internal/transport/http/middleware"
)

// setAuthCookies выставляет пару auth-cookie из свежевыпущенных токенов.
// Оба HttpOnly (JS их не видит), SameSite=Lax; Secure — из конфигурации
// (false допустим только локально без TLS). Срок жизни каждой cookie
// совпадает со сроком жизни её токена.
func (h *Handlers) setAuthCookies(w http.ResponseWriter, pair *models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieAccessToken,
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.AccessExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieRefreshToken,
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearAuthCookies гасит обе auth-cookie (logout).
// MaxAge=-1 + Expires в прошлом — браузер удаляет cookie немедленно.
func (h *Handlers) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.CookieAccessToken, middleware.CookieRefreshToken} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
