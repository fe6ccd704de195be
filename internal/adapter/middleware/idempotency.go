package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// HeaderUserID names the acting user on mutating requests when no token is required.
	HeaderUserID    = "Ax-User-Id"
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
	// HeaderReplayed is set on responses served from the replay store.
	HeaderReplayed = "Idempotent-Replayed"

	// A claimed write must finish within this window or the claim lapses.
	claimTTL     = 60 * time.Second
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

// storedWrite is the replay record of one mutating request.
type storedWrite struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// writeRequest is what identifies a mutating call for replay purposes.
type writeRequest struct {
	method    string
	path      string
	actor     string
	requestID string
	at        time.Time
	bodyHash  string
}

// key addresses one concrete resource: /proposals/1/accept and
// /proposals/2/accept never share a record.
func (w writeRequest) key() string {
	return replayKey(w.method, w.path, w.actor, w.requestID)
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

// IdempotencyMiddleware makes mutating routes safe to retry. A write is keyed
// by method, request path, acting user and Ax-Request-Id. The acting user is
// the token's user when JWTAuth ran first, otherwise the Ax-User-Id header.
// A repeat with the same body replays the stored response; a repeat with a
// different body, or while the first is still running, gets 409. Server
// errors are not stored so the client may retry them.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			w, status, msg := readWrite(c)
			if status != 0 {
				return c.JSON(status, map[string]string{"error": msg})
			}
			log := logrus.WithFields(logrus.Fields{"key": w.key(), "actor": w.actor})

			ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
			defer cancel()
			claimed, err := claimWrite(ctx, rdb, w.key(), w.pending())
			if err != nil {
				log.WithError(err).Error("idempotency: claim failed")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !claimed {
				return replay(ctx, c, rdb, w, log)
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			if rec.code >= http.StatusInternalServerError {
				if err := rdb.Del(context.Background(), w.key()).Err(); err != nil {
					log.WithError(err).Warn("idempotency: release failed")
				}
				return nil
			}
			done := w.pending()
			done.InProgress = false
			done.Code = rec.code
			done.Body = rec.buf.Bytes()
			done.CreatedAt = nowUTC()
			if err := finishWrite(context.Background(), rdb, w.key(), done, ttl); err != nil {
				log.WithError(err).Warn("idempotency: save failed")
			}
			return nil
		}
	}
}

func (w writeRequest) pending() storedWrite {
	return storedWrite{
		InProgress:  true,
		BodySHA256:  w.bodyHash,
		RequestID:   w.requestID,
		RequestAtMS: w.at.UnixMilli(),
		CreatedAt:   nowUTC(),
	}
}

// readWrite validates the replay headers and buffers the body. A non-zero
// status means the request is rejected with msg.
func readWrite(c echo.Context) (writeRequest, int, string) {
	req := c.Request()
	w := writeRequest{method: req.Method, path: req.URL.Path}

	w.requestID = strings.ToLower(strings.TrimSpace(req.Header.Get(HeaderRequestID)))
	if w.requestID == "" {
		return w, http.StatusBadRequest, "missing " + HeaderRequestID
	}
	if !validReqID(w.requestID) {
		return w, http.StatusBadRequest, "invalid " + HeaderRequestID + " format"
	}

	at, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
	if err != nil {
		return w, http.StatusBadRequest, err.Error()
	}
	now := nowUTC()
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return w, http.StatusBadRequest, HeaderRequestAt + " too skewed"
	}
	w.at = at

	actor, status, msg := actorOf(c)
	if status != 0 {
		return w, status, msg
	}
	w.actor = actor

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	w.bodyHash = bodyHash(body)
	return w, 0, ""
}

// actorOf prefers the authenticated user. A header that names someone else
// than the token is refused rather than silently ignored.
func actorOf(c echo.Context) (string, int, string) {
	header := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
	if id, ok := AuthUserID(c); ok {
		actor := strconv.FormatUint(id, 10)
		if header != "" && header != actor {
			return "", http.StatusForbidden, HeaderUserID + " does not match token"
		}
		return actor, 0, ""
	}
	if header == "" {
		return "", http.StatusBadRequest, "missing " + HeaderUserID
	}
	if !validUserID(header) {
		return "", http.StatusBadRequest, "invalid " + HeaderUserID
	}
	return header, 0, ""
}

func replay(ctx context.Context, c echo.Context, rdb *redis.Client, w writeRequest, log *logrus.Entry) error {
	cur, err := loadWrite(ctx, rdb, w.key())
	if err != nil {
		log.WithError(err).Warn("idempotency: load failed")
	}
	if cur.BodySHA256 != "" && cur.BodySHA256 != w.bodyHash {
		return c.JSON(http.StatusConflict, map[string]string{"error": HeaderRequestID + " reused with a different body"})
	}
	if !cur.InProgress && cur.Code != 0 {
		c.Response().Header().Set(HeaderReplayed, "true")
		return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
	}
	return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
}
