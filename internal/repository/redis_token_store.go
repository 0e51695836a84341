package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/coursehub-auth/internal/model"
)

// RedisTokenStore keeps refresh tokens in Redis, one hash per digest.  Keys
// expire together with the token, so expired rows vanish on their own.
// Mutations run as Lua scripts, which gives the same compare-and-swap on
// "still unrevoked" that TokenRepo gets from its conditional UPDATE.
//
// All keys of a store share one prefix; on Redis Cluster the prefix must be a
// hash tag (e.g. "{rt}") so the scripts touch a single slot.
type RedisTokenStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisTokenStore(rdb *redis.Client, prefix string) *RedisTokenStore {
	if prefix == "" {
		prefix = "rt"
	}
	return &RedisTokenStore{rdb: rdb, prefix: prefix}
}

var insertScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 1 then
		return 0
	end
	local id = redis.call('INCR', KEYS[2])
	redis.call('HSET', KEYS[1],
		'id', id, 'account_id', ARGV[1], 'token_hash', ARGV[2],
		'expires_at', ARGV[3], 'created_at', ARGV[4],
		'revoked_at', ARGV[5], 'replaced_by', ARGV[6])
	redis.call('PEXPIREAT', KEYS[1], ARGV[7])
	return id
`)

var rotateScript = redis.NewScript(`
	local revoked = redis.call('HGET', KEYS[1], 'revoked_at')
	if revoked == false or revoked ~= '' then
		return 0
	end
	if redis.call('EXISTS', KEYS[2]) == 1 then
		return -1
	end
	redis.call('HSET', KEYS[1], 'revoked_at', ARGV[1], 'replaced_by', ARGV[2])
	local id = redis.call('INCR', KEYS[3])
	redis.call('HSET', KEYS[2],
		'id', id, 'account_id', ARGV[3], 'token_hash', ARGV[2],
		'expires_at', ARGV[4], 'created_at', ARGV[5],
		'revoked_at', '', 'replaced_by', '')
	redis.call('PEXPIREAT', KEYS[2], ARGV[6])
	return id
`)

var revokeScript = redis.NewScript(`
	local revoked = redis.call('HGET', KEYS[1], 'revoked_at')
	if revoked == '' then
		redis.call('HSET', KEYS[1], 'revoked_at', ARGV[1])
		return 1
	end
	return 0
`)

func (s *RedisTokenStore) key(hash string) string { return s.prefix + ":h:" + hash }
func (s *RedisTokenStore) seqKey() string         { return s.prefix + ":seq" }

// Insert stores t and assigns it a sequential ID.
func (s *RedisTokenStore) Insert(ctx context.Context, t *model.RefreshToken) error {
	revoked := ""
	if t.RevokedAt != nil {
		revoked = formatNano(*t.RevokedAt)
	}
	replaced := ""
	if t.ReplacedByTokenHash != nil {
		replaced = *t.ReplacedByTokenHash
	}
	id, err := insertScript.Run(ctx, s.rdb,
		[]string{s.key(t.TokenHash), s.seqKey()},
		t.AccountID, t.TokenHash, formatNano(t.ExpiresAt), formatNano(t.CreatedAt),
		revoked, replaced, t.ExpiresAt.UnixMilli(),
	).Int64()
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	if id == 0 {
		return ErrDuplicateToken
	}
	t.ID = uint64(id)
	return nil
}

// FindByHash returns the token stored under hash.
func (s *RedisTokenStore) FindByHash(ctx context.Context, hash string) (model.RefreshToken, error) {
	m, err := s.rdb.HGetAll(ctx, s.key(hash)).Result()
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("find refresh token: %w", err)
	}
	if len(m) == 0 {
		return model.RefreshToken{}, ErrNotFound
	}
	return decodeToken(m)
}

// Rotate revokes old and inserts next atomically.  ErrTokenInactive means
// old was already revoked, expired out of Redis, or never existed.
func (s *RedisTokenStore) Rotate(ctx context.Context, old model.RefreshToken, now time.Time, next *model.RefreshToken) error {
	id, err := rotateScript.Run(ctx, s.rdb,
		[]string{s.key(old.TokenHash), s.key(next.TokenHash), s.seqKey()},
		formatNano(now), next.TokenHash, next.AccountID,
		formatNano(next.ExpiresAt), formatNano(next.CreatedAt), next.ExpiresAt.UnixMilli(),
	).Int64()
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	switch {
	case id == 0:
		return ErrTokenInactive
	case id < 0:
		return ErrDuplicateToken
	}
	next.ID = uint64(id)
	return nil
}

// Revoke marks t revoked and reports whether this call made the change.
func (s *RedisTokenStore) Revoke(ctx context.Context, t model.RefreshToken, now time.Time) (bool, error) {
	n, err := revokeScript.Run(ctx, s.rdb, []string{s.key(t.TokenHash)}, formatNano(now)).Int64()
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return n == 1, nil
}

func formatNano(t time.Time) string { return strconv.FormatInt(t.UnixNano(), 10) }

func parseNano(s string) (time.Time, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n).UTC(), nil
}

var errCorruptToken = errors.New("corrupt refresh token record")

func decodeToken(m map[string]string) (model.RefreshToken, error) {
	var (
		t   model.RefreshToken
		err error
	)
	if t.ID, err = strconv.ParseUint(m["id"], 10, 64); err != nil {
		return model.RefreshToken{}, errCorruptToken
	}
	if t.AccountID, err = strconv.ParseUint(m["account_id"], 10, 64); err != nil {
		return model.RefreshToken{}, errCorruptToken
	}
	t.TokenHash = m["token_hash"]
	if t.ExpiresAt, err = parseNano(m["expires_at"]); err != nil {
		return model.RefreshToken{}, errCorruptToken
	}
	if t.CreatedAt, err = parseNano(m["created_at"]); err != nil {
		return model.RefreshToken{}, errCorruptToken
	}
	if v := m["revoked_at"]; v != "" {
		at, err := parseNano(v)
		if err != nil {
			return model.RefreshToken{}, errCorruptToken
		}
		t.RevokedAt = &at
	}
	if v := m["replaced_by"]; v != "" {
		t.ReplacedByTokenHash = &v
	}
	return t, nil
}
