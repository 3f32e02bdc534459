package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/auth-service/internal/models"
	"github.com/vidtube/auth-service/mocks"
)

// newSvcAt создаёт сервис с фиксированным источником времени:
// границы истечения проверяются детерминированно, без sleep.
func newSvcAt(t *testing.T, now time.Time) (*Service, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := New(mocks.NewMockStorage(ctrl), testCfg())
	svc.now = func() time.Time { return now }
	return svc, ctrl
}

func TestAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := &models.User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice A.",
	}

	at, err := svc.mintAccessToken(ctx, user, time.Now().UTC())
	require.NoError(t, err)

	claims, err := svc.verifyAccessToken(at)
	require.NoError(t, err)
	require.Equal(t, user.ID.String(), claims.UserID)
	require.Equal(t, user.Username, claims.Username)
	require.Equal(t, user.Email, claims.Email)
	require.Equal(t, user.FullName, claims.FullName)
	require.Equal(t, user.ID.String(), claims.Subject)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	rt, err := svc.mintRefreshToken(ctx, userID, time.Now().UTC())
	require.NoError(t, err)

	got, err := svc.verifyRefreshToken(ctx, rt)
	require.NoError(t, err)
	require.Equal(t, userID, got)
}

// Проверка границ истечения с подменённым временем: до истечения токен
// валиден, после — ErrTokenExpired. Leeway нет.
func TestAccessToken_ExpiryBoundaries(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user := &models.User{ID: uuid.New(), Username: "alice"}

	svc, ctrl := newSvcAt(t, issued)
	defer ctrl.Finish()

	at, err := svc.mintAccessToken(context.Background(), user, issued)
	require.NoError(t, err)

	// За секунду до истечения — валиден.
	svc.now = func() time.Time { return issued.Add(svc.cfg.AccessTokenTTL - time.Second) }
	_, err = svc.verifyAccessToken(at)
	require.NoError(t, err)

	// Через секунду после истечения — ErrTokenExpired.
	svc.now = func() time.Time { return issued.Add(svc.cfg.AccessTokenTTL + time.Second) }
	_, err = svc.verifyAccessToken(at)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshToken_ExpiryBoundaries(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	svc, ctrl := newSvcAt(t, issued)
	defer ctrl.Finish()

	rt, err := svc.mintRefreshToken(context.Background(), userID, issued)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(svc.cfg.RefreshTokenTTL - time.Second) }
	_, err = svc.verifyRefreshToken(context.Background(), rt)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(svc.cfg.RefreshTokenTTL + time.Second) }
	_, err = svc.verifyRefreshToken(context.Background(), rt)
	require.ErrorIs(t, err, ErrTokenExpired)
}

// Нулевой TTL: токен, выпущенный с exp == iat, истёкший уже в момент
// выпуска — первая же проверка возвращает ErrTokenExpired.
func TestToken_ZeroTTL_ImmediatelyExpired(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user := &models.User{ID: uuid.New(), Username: "alice"}

	svc, ctrl := newSvcAt(t, issued)
	defer ctrl.Finish()
	svc.cfg.AccessTokenTTL = 0
	svc.cfg.RefreshTokenTTL = 0

	at, err := svc.mintAccessToken(context.Background(), user, issued)
	require.NoError(t, err)

	_, err = svc.verifyAccessToken(at)
	require.ErrorIs(t, err, ErrTokenExpired)

	rt, err := svc.mintRefreshToken(context.Background(), user.ID, issued)
	require.NoError(t, err)

	_, err = svc.verifyRefreshToken(context.Background(), rt)
	require.ErrorIs(t, err, ErrTokenExpired)
}

// Токены разных классов подписаны разными ключами: refresh-токен не
// проходит проверку access-класса и наоборот.
func TestToken_ClassConfusion_Rejected(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Username: "alice"}

	at, err := svc.mintAccessToken(ctx, user, time.Now().UTC())
	require.NoError(t, err)

	rt, err := svc.mintRefreshToken(ctx, user.ID, time.Now().UTC())
	require.NoError(t, err)

	_, err = svc.verifyAccessToken(rt)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.verifyRefreshToken(ctx, at)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestToken_WrongAlgorithm_Rejected(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	// HS512 правильным ключом: подпись сойдётся, но метод вне allow-list.
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		Issuer:    svc.cfg.Issuer,
		Subject:   uuid.New().String(),
		Audience:  jwt.ClaimStrings(svc.cfg.Audience),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).
		SignedString([]byte(svc.cfg.RefreshSecret))
	require.NoError(t, err)

	_, err = svc.verifyRefreshToken(context.Background(), signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestToken_WrongIssuerOrAudience_Rejected(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	mint := func(issuer string, audience []string) string {
		claims := jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    issuer,
			Subject:   uuid.New().String(),
			Audience:  jwt.ClaimStrings(audience),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString([]byte(svc.cfg.RefreshSecret))
		require.NoError(t, err)
		return signed
	}

	_, err := svc.verifyRefreshToken(context.Background(), mint("rogue-issuer", svc.cfg.Audience))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.verifyRefreshToken(context.Background(), mint(svc.cfg.Issuer, []string{"rogue-aud"}))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken_MalformedSubject_Rejected(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		Issuer:    svc.cfg.Issuer,
		Subject:   "not-a-uuid",
		Audience:  jwt.ClaimStrings(svc.cfg.Audience),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(svc.cfg.RefreshSecret))
	require.NoError(t, err)

	_, err = svc.verifyRefreshToken(context.Background(), signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}
