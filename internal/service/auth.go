package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/auth-service/internal/models"
	"github.com/vidtube/auth-service/internal/pkg/log"
	"github.com/vidtube/auth-service/internal/pkg/redact"
	"github.com/vidtube/auth-service/internal/storage"
)

// usernameRe — политика username: строчные латинские буквы/цифры,
// внутри допускаются точка, дефис и подчёркивание; длина 3..32.
var usernameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,31}$`)

// RegisterUser регистрирует нового пользователя и открывает его сессию.
func (s *Service) RegisterUser(ctx context.Context, username, email, fullName, password string) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.RegisterUser"

	normUsername, err := validateUsername(username)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrEmptyFullName)
	}

	if err := validatePassword(password); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	// Предварительная проверка занятости; гонку окончательно закрывает
	// уникальный индекс в БД (ErrAlreadyExists при вставке).
	for _, login := range []string{normUsername, normEmail} {
		if _, err := s.storage.UserByLogin(ctx, login); err == nil {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrLoginTaken)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	hashedPassword, err := s.hashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New(),
		Username:     normUsername,
		Email:        normEmail,
		FullName:     fullName,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrLoginTaken)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_registered",
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(user.Email)),
	)

	return user.Sanitized(), pair, nil
}

// LoginUser выполняет вход по идентификатору (username или email) и паролю.
// Неизвестный идентификатор и неверный пароль снаружи неразличимы:
// оба случая — ErrInvalidCredentials.
func (s *Service) LoginUser(ctx context.Context, identifier, password string) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.LoginUser"

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrEmptyLogin)
	}

	if len(password) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	user, err := s.storage.UserByLogin(ctx, strings.ToLower(identifier))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		log.From(ctx).Warn("login_failed",
			slog.String("op", op),
			slog.String("login", redact.Login(identifier)),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user.Sanitized(), pair, nil
}

// RefreshTokens обновляет пару токенов по refresh-токену с ротацией:
// предъявленный токен обязан быть текущим сохранённым значением, и
// успешное обновление атомарно заменяет его новым. Любой более ранний
// refresh-токен с этого момента даёт ErrSessionStale.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.RefreshTokens"

	userID, err := s.verifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	presentedHash := hashToken(refreshToken)

	// Кэш — только зеркало. Расхождение с предъявленным хэшем не повод
	// для отказа: зеркало могло отстать от хранилища (например, упавшая
	// запись в redis после успешной ротации). Решает compare-and-swap ниже.
	if s.scache != nil {
		if cached, ok, cerr := s.scache.Get(ctx, userID); cerr == nil && ok && cached != presentedHash {
			log.From(ctx).Warn("session_cache_drift",
				slog.String("op", op),
				slog.String("user_id", userID.String()),
			)
		}
	}

	now := s.now()

	accessToken, err := s.mintAccessToken(ctx, user, now)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	newRefreshToken, err := s.mintRefreshToken(ctx, userID, now)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	next := &models.Session{
		UserID:    userID,
		TokenHash: hashToken(newRefreshToken),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}

	swapped, err := s.storage.RotateSession(ctx, userID, presentedHash, next)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if !swapped {
		log.From(ctx).Warn("refresh_stale",
			slog.String("op", op),
			slog.String("user_id", userID.String()),
		)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrSessionStale)
	}

	s.mirrorSession(ctx, next)

	return &models.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     newRefreshToken,
		AccessExpiresAt:  now.Add(s.cfg.AccessTokenTTL),
		RefreshExpiresAt: next.ExpiresAt,
	}, userID, nil
}

// Logout закрывает refresh-сессию пользователя.
// Идемпотентен: повторный вызов и вызов без сессии — не ошибка.
// Уже выпущенные access-токены остаются валидны до естественного
// истечения: отзывается только refresh-состояние.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	const op = "service.auth.Logout"

	if err := s.storage.DeleteSession(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.scache != nil {
		if err := s.scache.Delete(ctx, userID); err != nil {
			log.From(ctx).Warn("session_cache_delete_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	return nil
}

// Authenticate проверяет access-токен и возвращает пользователя
// без секретных полей. Пользователь, удалённый после выпуска токена,
// даёт ErrUserNotFound.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	const op = "service.auth.Authenticate"

	claims, err := s.verifyAccessToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user.Sanitized(), nil
}

// issueTokenPair выпускает новую пару токенов и безусловно открывает
// сессию (PutSession вытесняет предыдущую — одна сессия на аккаунт).
func (s *Service) issueTokenPair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const op = "service.auth.issueTokenPair"

	now := s.now()

	accessToken, err := s.mintAccessToken(ctx, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.mintRefreshToken(ctx, user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session := &models.Session{
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}

	if err := s.storage.PutSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mirrorSession(ctx, session)

	return &models.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  now.Add(s.cfg.AccessTokenTTL),
		RefreshExpiresAt: session.ExpiresAt,
	}, nil
}

// mirrorSession обновляет кэш-зеркало сессии; ошибки только логируются.
func (s *Service) mirrorSession(ctx context.Context, session *models.Session) {
	if s.scache == nil {
		return
	}

	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}

	if err := s.scache.Set(ctx, session.UserID, session.TokenHash, ttl); err != nil {
		log.From(ctx).Warn("session_cache_set_failed",
			slog.String("err", err.Error()),
		)
	}
}

// hashToken — SHA-256 от refresh-токена в base64url.
// В БД и кэше хранится только хэш, сам токен — нет.
func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validateUsername нормализует username к нижнему регистру и проверяет
// его по политике формата.
func validateUsername(raw string) (string, error) {
	const op = "service.auth.validateUsername"

	username := strings.ToLower(strings.TrimSpace(raw))
	if !usernameRe.MatchString(username) {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidUsername)
	}

	return username, nil
}
