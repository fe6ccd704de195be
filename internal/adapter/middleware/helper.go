package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func nowUTC() time.Time { return time.Now().UTC() }

// replayKey is scoped to one actor acting on one concrete path.
func replayKey(method, path, actor, requestID string) string {
	return "idemp:lending:" + strings.ToLower(method) + ":" + path + ":" + actor + ":" + requestID
}

// validUserID accepts a positive decimal id.
func validUserID(s string) bool {
	n, err := strconv.ParseUint(s, 10, 64)
	return err == nil && n > 0
}

// validReqID accepts a lowercase RFC 4122 UUID, or the same 32 hex digits
// without dashes.
func validReqID(id string) bool {
	if id != strings.ToLower(id) {
		return false
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	switch len(id) {
	case 32:
		return true
	case 36:
		return u.Version() >= 1 && u.Version() <= 5 && u.Variant() == uuid.RFC4122
	}
	return false
}

// parseRequestAt reads Ax-Request-At as epoch seconds, epoch milliseconds or
// RFC3339 with an explicit zone.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	switch n, err := strconv.ParseInt(raw, 10, 64); {
	case raw == "":
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	case err == nil && n > 1e12:
		return time.UnixMilli(n).UTC(), nil
	case err == nil:
		return time.Unix(n, 0).UTC(), nil
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with zone")
	}
	return at.UTC(), nil
}

// claimWrite records an in-progress write; false means the key was taken.
func claimWrite(ctx context.Context, rdb *redis.Client, key string, w storedWrite) (bool, error) {
	payload, err := json.Marshal(w)
	if err != nil {
		return false, err
	}
	return rdb.SetNX(ctx, key, payload, claimTTL).Result()
}

func loadWrite(ctx context.Context, rdb *redis.Client, key string) (storedWrite, error) {
	var w storedWrite
	v, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return w, err
	}
	err = json.Unmarshal(v, &w)
	return w, err
}

func finishWrite(ctx context.Context, rdb *redis.Client, key string, w storedWrite, ttl time.Duration) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, payload, ttl).Err()
}
