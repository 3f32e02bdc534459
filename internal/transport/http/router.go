package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/auth-service/internal/service"
	"github.com/vidtube/auth-service/internal/transport/http/middleware"
)

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
// Защищённая группа (/auth/logout, /auth/me) дополнительно проходит
// Authenticate — единственный шлюз к приватным маршрутам.
func NewRouter(svc *service.Service, logger *slog.Logger, cookieSecure bool, timeout time.Duration) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),       // безопасно ловим паники
		middleware.RequestID(),     // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(logger), // кладём request-scoped логгер в контекст и логируем
	)
	if timeout > 0 {
		root.Use(middleware.Timeout(timeout)) // общий дедлайн запроса
	}

	h := NewHandlers(svc, cookieSecure)

	root.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/refresh", h.refresh)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(svc))
			r.Post("/logout", h.logout)
			r.Get("/me", h.me)
		})
	})

	return root
}
