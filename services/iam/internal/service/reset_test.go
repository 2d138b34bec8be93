package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formify-dev/formify/services/iam/internal/otp"
	"github.com/formify-dev/formify/services/iam/internal/session"
)

func TestResetStart_GenericSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Unknown email: success, no mail.
	require.NoError(t, env.svc.ResetStart(ctx, "ghost@example.com"))
	assert.Empty(t, env.mailer.sent)

	env.register(t, "bob@example.com", "Secret123!", "Bob")
	mails := len(env.mailer.sent)

	require.NoError(t, env.svc.ResetStart(ctx, "bob@example.com"))
	assert.Len(t, env.mailer.sent, mails+1)
}

func TestResetVerify_WrongOTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "bob@example.com", "Secret123!", "Bob")
	require.NoError(t, env.svc.ResetStart(ctx, "bob@example.com"))

	err := env.svc.ResetVerify(ctx, "bob@example.com", "000000")
	assert.ErrorIs(t, err, otp.ErrInvalidOTP)

	// No reset session without a verified OTP.
	exists, err := env.store.Exists(ctx, session.ResetSessionPrefix+"bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestResetComplete_WithoutVerify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "bob@example.com", "Secret123!", "Bob")

	err := env.svc.ResetComplete(ctx, "bob@example.com", "NewSecret456!")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestReset_FullFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "bob@example.com", "Secret123!", "Bob")
	require.NoError(t, env.svc.ResetStart(ctx, "bob@example.com"))
	require.NoError(t, env.svc.ResetVerify(ctx, "bob@example.com", env.mailer.lastCode(t)))
	require.NoError(t, env.svc.ResetComplete(ctx, "bob@example.com", "NewSecret456!"))

	// Old password is out, new one is in.
	_, _, err := env.svc.Login(ctx, "bob@example.com", "Secret123!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = env.svc.Login(ctx, "bob@example.com", "NewSecret456!")
	require.NoError(t, err)

	// The reset session is single-use.
	err = env.svc.ResetComplete(ctx, "bob@example.com", "ThirdSecret789!")
	assert.ErrorIs(t, err, ErrSessionExpired)

	// The global-revocation watermark is in place.
	user, err := env.svc.Repo.FindByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	exists, err := env.store.Exists(ctx, session.RevokedUserPrefix+user.ID.String())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestResetComplete_SessionExpires(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "bob@example.com", "Secret123!", "Bob")
	require.NoError(t, env.svc.ResetStart(ctx, "bob@example.com"))
	require.NoError(t, env.svc.ResetVerify(ctx, "bob@example.com", env.mailer.lastCode(t)))

	env.mr.FastForward(11 * time.Minute)

	err := env.svc.ResetComplete(ctx, "bob@example.com", "NewSecret456!")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestResetResend_Cooldown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "bob@example.com", "Secret123!", "Bob")
	require.NoError(t, env.svc.ResetStart(ctx, "bob@example.com"))

	err := env.svc.ResetResend(ctx, "bob@example.com")
	require.ErrorIs(t, err, ErrTooManyRequests)

	var cooldown *CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Greater(t, cooldown.RetryAfter, time.Duration(0))

	env.mr.FastForward(6 * time.Minute)
	require.NoError(t, env.svc.ResetResend(ctx, "bob@example.com"))
}
