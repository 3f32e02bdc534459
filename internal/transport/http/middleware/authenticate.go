package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/vidtube/auth-service/internal/errors"
	"github.com/vidtube/auth-service/internal/models"
	logctx "github.com/vidtube/auth-service/internal/pkg/log"
	"github.com/vidtube/auth-service/internal/service"
)

type userContextKey struct{}

// UserFromContext возвращает аутентифицированного пользователя запроса.
// Заполняется мидлваром Authenticate; за его пределами пользователя в
// контексте нет.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*models.User)
	return u, ok
}

// Authenticate — обязательный шлюз для защищённых маршрутов.
//
// Порядок извлечения access-токена: cookie access_token, затем
// заголовок Authorization: Bearer (cookie имеет приоритет). Токен
// проверяется только по подписи/сроку, затем пользователь загружается
// из хранилища: токен удалённого аккаунта отклоняется.
//
// Любая причина отказа наружу — единый 401 без деталей; различие
// (нет токена / просрочен / битый / нет пользователя) остаётся в логах.
// Шлюз никогда не делает auto-refresh: обновление пары — явный вызов
// клиента.
func Authenticate(svc *service.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessTokenFromRequest(r)
			if token == "" {
				apierrors.WriteUnauthorized(w, r)
				return
			}

			user, err := svc.Authenticate(r.Context(), token)
			if err != nil {
				logctx.From(r.Context()).Warn("request_unauthenticated",
					slog.String("path", r.URL.Path),
					slog.String("reason", err.Error()),
				)
				apierrors.WriteUnauthorized(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// accessTokenFromRequest извлекает access-токен: cookie, затем Bearer.
func accessTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieAccessToken); err == nil && c.Value != "" {
		return c.Value
	}

	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}

	return ""
}
