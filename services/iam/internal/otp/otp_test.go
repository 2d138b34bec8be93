package otp

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formify-dev/formify/services/iam/internal/session"
)

type fakeMailer struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to, subject, body string
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var codeRe = regexp.MustCompile(`\b(\d{6})\b`)

func sentCode(t *testing.T, m *fakeMailer) string {
	t.Helper()
	require.NotEmpty(t, m.sent)
	match := codeRe.FindStringSubmatch(m.sent[len(m.sent)-1].body)
	require.Len(t, match, 2)
	return match[1]
}

func newTestEngine(t *testing.T) (*Engine, *fakeMailer, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mailer := &fakeMailer{}
	return NewEngine(session.NewStore(rdb), mailer, 5*time.Minute, 5), mailer, mr
}

func TestEngine_IssueAndVerify(t *testing.T) {
	engine, mailer, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Issue(ctx, "alice@example.com"))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "alice@example.com", mailer.sent[0].to)

	code := sentCode(t, mailer)
	require.NoError(t, engine.Verify(ctx, "alice@example.com", code))
}

func TestEngine_Verify_OneTimeUse(t *testing.T) {
	engine, mailer, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Issue(ctx, "alice@example.com"))
	code := sentCode(t, mailer)

	require.NoError(t, engine.Verify(ctx, "alice@example.com", code))

	err := engine.Verify(ctx, "alice@example.com", code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestEngine_Verify_WrongCodeLeavesChallenge(t *testing.T) {
	engine, mailer, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Issue(ctx, "alice@example.com"))
	code := sentCode(t, mailer)

	err := engine.Verify(ctx, "alice@example.com", "000000")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	require.NoError(t, engine.Verify(ctx, "alice@example.com", code))
}

func TestEngine_Verify_AttemptBudgetBurnsChallenge(t *testing.T) {
	engine, mailer, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Issue(ctx, "alice@example.com"))
	code := sentCode(t, mailer)

	for i := 0; i < 4; i++ {
		assert.ErrorIs(t, engine.Verify(ctx, "alice@example.com", "000000"), ErrInvalidOTP)
	}
	assert.ErrorIs(t, engine.Verify(ctx, "alice@example.com", "000000"), ErrTooManyAttempts)

	// Burned: the real code no longer works.
	assert.ErrorIs(t, engine.Verify(ctx, "alice@example.com", code), ErrInvalidOTP)
}

func TestEngine_Verify_Expired(t *testing.T) {
	engine, mailer, mr := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Issue(ctx, "alice@example.com"))
	code := sentCode(t, mailer)

	mr.FastForward(6 * time.Minute)

	assert.ErrorIs(t, engine.Verify(ctx, "alice@example.com", code), ErrInvalidOTP)
}

func TestEngine_Cooldown(t *testing.T) {
	engine, _, mr := newTestEngine(t)
	ctx := context.Background()

	_, active, err := engine.Cooldown(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, engine.Issue(ctx, "alice@example.com"))

	wait, active, err := engine.Cooldown(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, active)
	assert.Greater(t, wait, 4*time.Minute)

	mr.FastForward(6 * time.Minute)

	_, active, err = engine.Cooldown(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestEngine_Issue_MailFailureLeavesUsableCode(t *testing.T) {
	engine, mailer, _ := newTestEngine(t)
	ctx := context.Background()

	mailer.err = errors.New("smtp down")
	require.Error(t, engine.Issue(ctx, "alice@example.com"))

	// The stored challenge survives the transport failure; a later resend
	// overwrites it rather than racing it.
	_, active, err := engine.Cooldown(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestEngine_Issue_NewCodeOverwritesOld(t *testing.T) {
	engine, mailer, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Issue(ctx, "alice@example.com"))
	first := sentCode(t, mailer)

	require.NoError(t, engine.Issue(ctx, "alice@example.com"))
	second := sentCode(t, mailer)

	if first != second {
		assert.ErrorIs(t, engine.Verify(ctx, "alice@example.com", first), ErrInvalidOTP)
	}
	require.NoError(t, engine.Verify(ctx, "alice@example.com", second))
}
