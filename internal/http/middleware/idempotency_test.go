package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const archiveRoute = "/events/:id/archive"

// seen is the flags a handler observed for one request.
type seen struct {
	key    string
	scope  string
	replay bool
	bypass bool
}

func archiveRouter(opts IdempotencyOptions, lookup IdempotencyLookup, got *seen) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyValidator(opts, lookup))
	record := func(c *gin.Context) {
		*got = seen{scope: GetIdempotencyScope(c), replay: IsReplay(c), bypass: IsRateBypass(c)}
		got.key, _ = GetIdempotencyKey(c)
		c.Status(http.StatusCreated)
	}
	r.POST(archiveRoute, record)
	r.POST("/participants/:id/notification-receipts", record)
	return r
}

func post(r http.Handler, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestContextAccessors_IgnoreForeignValues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if _, ok := GetIdempotencyKey(c); ok || GetIdempotencyScope(c) != "" || IsReplay(c) {
		t.Fatalf("fresh context reports idempotency state")
	}
	c.Set(ctxKeyIdemKey, 42)
	c.Set(ctxKeyIdemScope, []byte("archive:e1"))
	c.Set(ctxKeyIdemReplay, 1)
	if _, ok := GetIdempotencyKey(c); ok || GetIdempotencyScope(c) != "" || IsReplay(c) {
		t.Fatalf("wrongly typed values were accepted")
	}
}

func TestScopeByRoute(t *testing.T) {
	scope := ScopeByRoute("archive", archiveRoute)
	var got string
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST(archiveRoute, func(c *gin.Context) { got = scope(c) })
	r.POST("/events/:id/other", func(c *gin.Context) { got = scope(c) })

	post(r, "/events/ev-77/archive", "")
	if got != "archive:ev-77" {
		t.Fatalf("archive scope = %q", got)
	}
	post(r, "/events/ev-77/other", "")
	if got != "" {
		t.Fatalf("unguarded route scope = %q", got)
	}
}

func TestIdempotencyValidator_RejectsBadKeys(t *testing.T) {
	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"too long for default", IdempotencyOptions{}, strings.Repeat("k", 201)},
		{"too long for custom max", IdempotencyOptions{MaxLen: 8}, "archive-key"},
		{"space", IdempotencyOptions{}, "retry 1"},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9a-f]{8}$`)}, "ABCDEF12"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got seen
			w := post(archiveRouter(tc.opts, nil, &got), "/events/e1/archive", tc.key)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d; want 400", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["code"] != "bad_idempotency_key" {
				t.Fatalf("body = %s (%v)", w.Body.String(), err)
			}
		})
	}

	var got seen
	if w := post(archiveRouter(IdempotencyOptions{}, nil, &got), "/events/e1/archive", strings.Repeat("k", 200)); w.Code != http.StatusCreated {
		t.Fatalf("200-byte key rejected: %d", w.Code)
	}
}

func TestIdempotencyValidator_Flow(t *testing.T) {
	completed := map[string]bool{"archive:e1|retry-1": true}
	var calls []string
	lookup := func(_ context.Context, scope, key string, now time.Time) (bool, error) {
		if now.Location() != time.UTC {
			t.Fatalf("lookup time not UTC: %v", now)
		}
		calls = append(calls, scope+"|"+key)
		return completed[scope+"|"+key], nil
	}
	opts := IdempotencyOptions{Scope: ScopeByRoute("archive", archiveRoute)}

	cases := []struct {
		name  string
		path  string
		key   string
		want  seen
		calls int
	}{
		{"no header", "/events/e1/archive", "", seen{}, 0},
		{"first attempt", "/events/e1/archive", "retry-2", seen{key: "retry-2", scope: "archive:e1"}, 1},
		{"replay", "/events/e1/archive", "retry-1", seen{key: "retry-1", scope: "archive:e1", replay: true, bypass: true}, 1},
		{"same key other event", "/events/e2/archive", "retry-1", seen{key: "retry-1", scope: "archive:e2"}, 1},
		{"unguarded route", "/participants/p1/notification-receipts", "retry-1", seen{key: "retry-1"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls = nil
			var got seen
			if w := post(archiveRouter(opts, lookup, &got), tc.path, tc.key); w.Code != http.StatusCreated {
				t.Fatalf("status = %d", w.Code)
			}
			if got != tc.want {
				t.Fatalf("handler saw %+v; want %+v", got, tc.want)
			}
			if len(calls) != tc.calls {
				t.Fatalf("lookup calls = %v; want %d", calls, tc.calls)
			}
		})
	}
}

func TestIdempotencyValidator_LookupErrorProcessesAsNew(t *testing.T) {
	buf := captureLogger(t)
	lookup := func(context.Context, string, string, time.Time) (bool, error) {
		return true, errors.New("database is locked")
	}
	var got seen
	w := post(archiveRouter(IdempotencyOptions{Scope: ScopeByRoute("archive", archiveRoute)}, lookup, &got), "/events/e1/archive", "retry-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	if got.replay || got.bypass || got.scope != "archive:e1" {
		t.Fatalf("failed lookup treated as replay: %+v", got)
	}
	if !strings.Contains(buf.String(), "idempotency lookup failed") || !strings.Contains(buf.String(), "database is locked") {
		t.Fatalf("missing warning: %s", buf.String())
	}
}
