package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key namespaces. Every ephemeral artifact lives under exactly one prefix so
// the same store can hold pending registrations, OTP challenges, reset
// sessions and the token denylist without collisions.
const (
	PendingUserPrefix  = "pending_user:"
	OTPPrefix          = "otp:"
	ResetSessionPrefix = "reset_session:"
	DenylistPrefix     = "blacklist:jti:"
	RevokedUserPrefix  = "revoked_user:"
)

var ErrUnavailable = errors.New("session store unavailable")

// consumeCodeLua atomically compares a stored one-time code against a
// candidate. Success deletes the key; a mismatch increments the attempt
// counter in place, preserving the remaining TTL; exhausting the attempt
// budget burns the key. Values are stored as "<code>|<attempts>".
//
// Returns: 1 consumed, 0 absent/expired, -1 mismatch, -2 attempts exceeded.
var consumeCodeLua = redis.NewScript(`
local stored = redis.call('GET', KEYS[1])
if not stored then
  return 0
end

local sep = string.find(stored, '|', 1, true)
if not sep then
  redis.call('DEL', KEYS[1])
  return 0
end

local code = string.sub(stored, 1, sep - 1)
local attempts = tonumber(string.sub(stored, sep + 1)) or 0

if code == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end

attempts = attempts + 1
if attempts >= tonumber(ARGV[2]) then
  redis.call('DEL', KEYS[1])
  return -2
end

local ttl = redis.call('PTTL', KEYS[1])
if ttl <= 0 then
  redis.call('DEL', KEYS[1])
  return 0
end

redis.call('SET', KEYS[1], code .. '|' .. attempts, 'PX', ttl)
return -1
`)

type ConsumeResult int

const (
	ConsumeOK ConsumeResult = iota
	ConsumeNotFound
	ConsumeMismatch
	ConsumeAttemptsExceeded
)

// Store is a namespaced key-value view over Redis with per-key TTLs. All
// writes are atomic set-with-expiry; there is no separate set+expire pair
// anywhere.
type Store struct {
	rdb redis.UniversalClient
}

func NewStore(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, redactKey(key), err)
	}
	return nil
}

// SetNX writes the key only if it does not exist yet. Returns false when the
// key was already present.
func (s *Store) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: setnx %s: %v", ErrUnavailable, redactKey(key), err)
	}
	return ok, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, redactKey(key), err)
	}
	return v, true, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", ErrUnavailable, redactKey(key), err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %v", ErrUnavailable, redactKey(key), err)
	}
	return n > 0, nil
}

// TTL reports the remaining lifetime of a key, or ok=false if the key is
// absent or has no expiry.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, fmt.Errorf("%w: ttl %s: %v", ErrUnavailable, redactKey(key), err)
	}
	if d < 0 {
		return 0, false, nil
	}
	return d, true, nil
}

// SetCode stores a one-time code with a zeroed attempt counter.
func (s *Store) SetCode(ctx context.Context, key, code string, ttl time.Duration) error {
	return s.Set(ctx, key, code+"|0", ttl)
}

// ConsumeCode runs the atomic compare-and-delete. Concurrent verifications of
// the same key serialize inside Redis, so a code can be consumed at most once.
func (s *Store) ConsumeCode(ctx context.Context, key, candidate string, maxAttempts int) (ConsumeResult, error) {
	res, err := consumeCodeLua.Run(ctx, s.rdb, []string{key}, candidate, strconv.Itoa(maxAttempts)).Int64()
	if err != nil {
		return ConsumeNotFound, fmt.Errorf("%w: consume %s: %v", ErrUnavailable, redactKey(key), err)
	}
	switch res {
	case 1:
		return ConsumeOK, nil
	case -1:
		return ConsumeMismatch, nil
	case -2:
		return ConsumeAttemptsExceeded, nil
	default:
		return ConsumeNotFound, nil
	}
}

// redactKey keeps the namespace but drops the member, so error messages never
// carry emails or token identifiers.
func redactKey(key string) string {
	if i := strings.Index(key, ":"); i >= 0 {
		return key[:i+1] + "*"
	}
	return key
}
