package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkghash "github.com/formify-dev/formify/pkg/hash"
	"github.com/formify-dev/formify/pkg/tokens"
	"github.com/formify-dev/formify/services/iam/internal/models"
	"github.com/formify-dev/formify/services/iam/internal/otp"
	"github.com/formify-dev/formify/services/iam/internal/repo"
	"github.com/formify-dev/formify/services/iam/internal/session"
	"github.com/formify-dev/formify/services/iam/internal/token"
)

type fakeMailer struct {
	sent []string
	to   []string
}

func (f *fakeMailer) Send(_ context.Context, to, _, body string) error {
	f.to = append(f.to, to)
	f.sent = append(f.sent, body)
	return nil
}

var codeRe = regexp.MustCompile(`\b(\d{6})\b`)

func (f *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	match := codeRe.FindStringSubmatch(f.sent[len(f.sent)-1])
	require.Len(t, match, 2)
	return match[1]
}

type testEnv struct {
	svc    *AuthService
	db     *gorm.DB
	mailer *fakeMailer
	mr     *miniredis.Miniredis
	store  *session.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := session.NewStore(rdb)
	mailer := &fakeMailer{}

	svc := &AuthService{
		Repo:  &repo.GormRepo{DB: db},
		OTP:   otp.NewEngine(store, mailer, 5*time.Minute, 5),
		Store: store,
		Tokens: &token.Engine{
			Store:      store,
			Secret:     []byte("test-secret"),
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		PendingTTL: 10 * time.Minute,
		ResetTTL:   10 * time.Minute,
	}

	return &testEnv{svc: svc, db: db, mailer: mailer, mr: mr, store: store}
}

func (e *testEnv) register(t *testing.T, email, password, name string) *models.User {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, e.svc.RegisterStart(ctx, email, password, name))
	user, err := e.svc.RegisterComplete(ctx, email, e.mailer.lastCode(t))
	require.NoError(t, err)
	return user
}

func TestRegister_FullFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.RegisterStart(ctx, "Alice@Example.com", "Secret123!", "Alice"))

	// No durable row yet.
	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, []string{"alice@example.com"}, env.mailer.to)

	user, err := env.svc.RegisterComplete(ctx, "alice@example.com", env.mailer.lastCode(t))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.RoleCreator, user.Role)
	assert.True(t, user.IsVerified)

	// The pending blob is consumed.
	exists, err := env.store.Exists(ctx, session.PendingUserPrefix+"alice@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRegisterStart_Conflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice@example.com", "Secret123!", "Alice")

	err := env.svc.RegisterStart(ctx, "alice@example.com", "Other456!", "Alice")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterComplete_WrongOTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.RegisterStart(ctx, "alice@example.com", "Secret123!", "Alice"))

	user, err := env.svc.RegisterComplete(ctx, "alice@example.com", "000000")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, otp.ErrInvalidOTP)
}

func TestRegisterComplete_WindowLapsed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.RegisterStart(ctx, "alice@example.com", "Secret123!", "Alice"))
	code := env.mailer.lastCode(t)

	// The OTP outlived the registration window in this setup only because the
	// clock jumped past both; the blob check still runs after verification.
	env.mr.FastForward(11 * time.Minute)

	user, err := env.svc.RegisterComplete(ctx, "alice@example.com", code)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, otp.ErrInvalidOTP)
}

func TestRegisterComplete_PendingExpiredButOTPValid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.RegisterStart(ctx, "alice@example.com", "Secret123!", "Alice"))

	// Drop the blob directly: simulates the pending window lapsing while a
	// freshly resent OTP is still live.
	require.NoError(t, env.store.Delete(ctx, session.PendingUserPrefix+"alice@example.com"))

	user, err := env.svc.RegisterComplete(ctx, "alice@example.com", env.mailer.lastCode(t))
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestRegisterResend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.svc.RegisterResend(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNoPendingRegistration)

	require.NoError(t, env.svc.RegisterStart(ctx, "alice@example.com", "Secret123!", "Alice"))

	err = env.svc.RegisterResend(ctx, "alice@example.com")
	require.ErrorIs(t, err, ErrTooManyRequests)

	var cooldown *CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Greater(t, cooldown.RetryAfter, time.Minute)

	// Once the challenge expires the resend goes through.
	env.mr.FastForward(6 * time.Minute)
	require.NoError(t, env.svc.RegisterResend(ctx, "alice@example.com"))
	assert.Len(t, env.mailer.sent, 2)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.svc.Login(ctx, "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, ErrNotFound)

	env.register(t, "alice@example.com", "Secret123!", "Alice")

	_, _, err = env.svc.Login(ctx, "alice@example.com", "WrongPass1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, pair, err := env.svc.Login(ctx, "alice@example.com", "Secret123!")
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	// The returned user reflects the login that just happened, and so does
	// the stored row.
	require.NotNil(t, user.LastLogin)
	stored, err := env.svc.Repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestLogin_NotVerified(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pwHash, err := pkghash.HashPassword("Secret123!")
	require.NoError(t, err)
	unverified := models.User{
		Email:        "bob@example.com",
		FullName:     "Bob",
		PasswordHash: pwHash,
		Role:         models.RoleCreator,
		Status:       models.StatusActive,
		IsVerified:   false,
	}
	require.NoError(t, env.svc.Repo.CreateUser(ctx, &unverified))

	_, _, err = env.svc.Login(ctx, "bob@example.com", "Secret123!")
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestRefresh_RotationIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice@example.com", "Secret123!", "Alice")
	_, pair, err := env.svc.Login(ctx, "alice@example.com", "Secret123!")
	require.NoError(t, err)

	newPair, err := env.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	// Replaying the rotated token is the reuse-detection signal.
	_, err = env.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, token.ErrTokenRevoked)

	// The fresh one still works.
	_, err = env.svc.Refresh(ctx, newPair.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice@example.com", "Secret123!", "Alice")
	_, pair, err := env.svc.Login(ctx, "alice@example.com", "Secret123!")
	require.NoError(t, err)

	_, err = env.svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, tokens.ErrWrongTokenType)
}

func TestLogout_Twice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice@example.com", "Secret123!", "Alice")
	_, pair, err := env.svc.Login(ctx, "alice@example.com", "Secret123!")
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, pair.RefreshToken))

	err = env.svc.Logout(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, token.ErrTokenRevoked)

	// A logged-out refresh token can no longer rotate.
	_, err = env.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, token.ErrTokenRevoked)
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.register(t, "alice@example.com", "Secret123!", "Alice")
	_, pair, err := env.svc.Login(ctx, "alice@example.com", "Secret123!")
	require.NoError(t, err)

	user, err := env.svc.CurrentUser(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = env.svc.CurrentUser(ctx, "garbage")
	assert.ErrorIs(t, err, tokens.ErrTokenMalformed)

	_, err = env.svc.CurrentUser(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, tokens.ErrWrongTokenType)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice@example.com", "Secret123!", "Alice")
	_, pair, err := env.svc.Login(ctx, "alice@example.com", "Secret123!")
	require.NoError(t, err)

	err = env.svc.ChangePassword(ctx, "garbage", "Secret123!", "Fresh456!")
	assert.ErrorIs(t, err, tokens.ErrTokenMalformed)

	err = env.svc.ChangePassword(ctx, pair.AccessToken, "WrongPass1!", "Fresh456!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, env.svc.ChangePassword(ctx, pair.AccessToken, "Secret123!", "Fresh456!"))

	// The old credential is gone, the new one works.
	_, _, err = env.svc.Login(ctx, "alice@example.com", "Secret123!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = env.svc.Login(ctx, "alice@example.com", "Fresh456!")
	require.NoError(t, err)

	// Tokens issued before the change are dead on both paths.
	_, err = env.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, token.ErrTokenRevoked)
	_, err = env.svc.CurrentUser(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, token.ErrTokenRevoked)
}
