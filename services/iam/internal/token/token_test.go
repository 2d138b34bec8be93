package token

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formify-dev/formify/pkg/tokens"
	"github.com/formify-dev/formify/services/iam/internal/session"
)

func newTestEngine(t *testing.T) (*Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return &Engine{
		Store:      session.NewStore(rdb),
		Secret:     []byte("test-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}, mr
}

func refreshClaims(userID string, issuedAt time.Time, exp time.Time) *tokens.RefreshClaims {
	return &tokens.RefreshClaims{
		Type: tokens.TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        tokens.NewJTI(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func TestEngine_IssuePair_RoundTrip(t *testing.T) {
	engine, _ := newTestEngine(t)
	userID := uuid.NewString()

	pair, err := engine.IssuePair(userID, "creator")
	require.NoError(t, err)

	access, err := engine.DecodeAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, access.Subject)
	assert.Equal(t, "creator", access.Role)

	refresh, err := engine.DecodeRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, refresh.Subject)
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestEngine_CrossTypePresentation(t *testing.T) {
	engine, _ := newTestEngine(t)

	pair, err := engine.IssuePair(uuid.NewString(), "creator")
	require.NoError(t, err)

	// The signature is valid either way; the typ claim is what decides.
	_, err = engine.DecodeRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, tokens.ErrWrongTokenType)

	_, err = engine.DecodeAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, tokens.ErrWrongTokenType)
}

func TestEngine_ConsumeRefresh_SecondUseRevoked(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	claims := refreshClaims(uuid.NewString(), time.Now(), time.Now().Add(time.Hour))

	require.NoError(t, engine.ConsumeRefresh(ctx, claims))

	err := engine.ConsumeRefresh(ctx, claims)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestEngine_ConsumeRefresh_DenylistTTLTracksTokenLife(t *testing.T) {
	engine, mr := newTestEngine(t)
	ctx := context.Background()

	claims := refreshClaims(uuid.NewString(), time.Now(), time.Now().Add(30*time.Minute))
	require.NoError(t, engine.ConsumeRefresh(ctx, claims))

	ttl, ok, err := engine.Store.TTL(ctx, session.DenylistPrefix+claims.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.LessOrEqual(t, ttl, 30*time.Minute)
	assert.Greater(t, ttl, 29*time.Minute)

	// Once the token could no longer be valid, the denylist entry is gone too.
	mr.FastForward(31 * time.Minute)
	exists, err := engine.Store.Exists(ctx, session.DenylistPrefix+claims.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEngine_ConsumeRefresh_ExpiredToken(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	claims := refreshClaims(uuid.NewString(), time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour))

	err := engine.ConsumeRefresh(ctx, claims)
	assert.ErrorIs(t, err, tokens.ErrTokenExpired)
}

func TestEngine_RevokeAllForUser_InvalidatesOlderTokens(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	userID := uuid.NewString()

	old := refreshClaims(userID, time.Now().Add(-time.Minute), time.Now().Add(time.Hour))

	require.NoError(t, engine.RevokeAllForUser(ctx, userID))

	err := engine.ConsumeRefresh(ctx, old)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// Tokens issued after the watermark are unaffected.
	fresh := refreshClaims(userID, time.Now().Add(time.Second), time.Now().Add(time.Hour))
	require.NoError(t, engine.ConsumeRefresh(ctx, fresh))
}

func TestEngine_RevokeAllForUser_SameSecondRejected(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	userID := uuid.NewString()

	// Issued in the same unix second as the revocation: iat cannot prove the
	// token postdates the watermark, so it must die with the rest.
	boundary := refreshClaims(userID, time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, engine.RevokeAllForUser(ctx, userID))

	err := engine.ConsumeRefresh(ctx, boundary)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestEngine_RevokeAllForUser_OtherUsersUnaffected(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.RevokeAllForUser(ctx, uuid.NewString()))

	other := refreshClaims(uuid.NewString(), time.Now().Add(-time.Minute), time.Now().Add(time.Hour))
	require.NoError(t, engine.ConsumeRefresh(ctx, other))
}

func TestEngine_IsAccessRevoked(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	userID := uuid.NewString()

	claims := &tokens.AccessClaims{
		Role: "creator",
		Type: tokens.TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        tokens.NewJTI(),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	}

	revoked, err := engine.IsAccessRevoked(ctx, claims)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, engine.RevokeAllForUser(ctx, userID))

	revoked, err = engine.IsAccessRevoked(ctx, claims)
	require.NoError(t, err)
	assert.True(t, revoked)
}
