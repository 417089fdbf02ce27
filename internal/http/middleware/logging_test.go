package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

// entries decodes one JSON object per log line.
func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("log line is not JSON: %v: %s", err, sc.Text())
		}
		out = append(out, m)
	}
	return out
}

func accessLog(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	for _, e := range entries(t, buf) {
		if e["message"] == "request" {
			return e
		}
	}
	t.Fatalf("no access log in:\n%s", buf.String())
	return nil
}

func loggedRouter(opts LogOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger(opts), Recovery())
	return r
}

func TestRequestID(t *testing.T) {
	r := loggedRouter(LogOptions{})
	var inCtx any
	r.GET("/events/:id/due", func(c *gin.Context) {
		inCtx, _ = c.Get(requestIDKey)
		c.Status(http.StatusOK)
	})
	captureLogger(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/e1/due", nil))
	gen := w.Header().Get(requestIDHeader)
	if _, err := uuid.Parse(gen); err != nil || inCtx != gen {
		t.Fatalf("generated id %q (ctx %v): %v", gen, inCtx, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/events/e1/due", nil)
	req.Header.Set("x-request-id", "push-batch-17")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "push-batch-17" || inCtx != "push-batch-17" {
		t.Fatalf("propagated id = %q (ctx %v)", got, inCtx)
	}
}

func TestLogger_LevelsAndPath(t *testing.T) {
	r := loggedRouter(LogOptions{})
	r.GET("/events/:id/due", func(c *gin.Context) { c.String(http.StatusOK, "{}") })
	r.POST("/events/:id/archive", func(c *gin.Context) { c.Status(http.StatusConflict) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	r.POST("/participants/:id/notification-receipts", func(c *gin.Context) {
		_ = c.Error(errors.New("receipt queue full"))
		c.Status(http.StatusAccepted)
	})

	cases := []struct {
		method, url string
		level, path string
	}{
		{http.MethodGet, "/events/e1/due", "info", "/events/:id/due"},
		{http.MethodPost, "/events/e1/archive", "warn", "/events/:id/archive"},
		{http.MethodGet, "/health", "error", "/health"},
		{http.MethodPost, "/participants/p1/notification-receipts", "error", "/participants/:id/notification-receipts"},
		{http.MethodGet, "/events/e1/nowhere", "warn", "/events/e1/nowhere"},
	}
	for _, tc := range cases {
		buf := captureLogger(t)
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.url, nil))
		e := accessLog(t, buf)
		if e["level"] != tc.level || e["path"] != tc.path {
			t.Fatalf("%s %s logged level=%v path=%v; want %s %s", tc.method, tc.url, e["level"], e["path"], tc.level, tc.path)
		}
		if e["request_id"] == "" || e["status"] == nil || e["latency"] == nil {
			t.Fatalf("%s %s missing fields: %v", tc.method, tc.url, e)
		}
	}
}

func TestLogger_Redaction(t *testing.T) {
	r := loggedRouter(LogOptions{MaskHeaders: []string{" x-api-key "}, LogHeaders: true})
	r.GET("/participants/:id/archived-events", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	buf := captureLogger(t)

	q := "email=a.b+tag@example.com&phone=+1-555-123-4567&uuid=123e4567-e89b-12d3-a456-426614174000"
	req := httptest.NewRequest(http.MethodGet, "/participants/p1/archived-events?"+q, nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Custom", "email a@b.com id=123e4567-e89b-12d3-a456-426614174000 phone 555-123-4567")
	req.Header.Set(HeaderWorkerID, "worker-7")
	r.ServeHTTP(httptest.NewRecorder(), req)

	e := accessLog(t, buf)
	if e["worker_id"] != "worker-7" {
		t.Fatalf("worker_id = %v", e["worker_id"])
	}
	query, _ := e["query"].(string)
	for _, tag := range []string{"[REDACTED:email]", "[REDACTED:phone]", "[REDACTED:id]"} {
		if !strings.Contains(query, tag) {
			t.Fatalf("query %q lacks %s", query, tag)
		}
	}
	headers, _ := e["headers"].(map[string]any)
	if headers["Authorization"] != "[REDACTED]" || headers["X-Api-Key"] != "[REDACTED]" {
		t.Fatalf("masked headers: %v", headers)
	}
	if headers["X-Custom"] != "email [REDACTED:email] id=[REDACTED:id] phone [REDACTED:phone]" {
		t.Fatalf("X-Custom = %v", headers["X-Custom"])
	}
	if s := buf.String(); strings.Contains(s, "example.com") || strings.Contains(s, "123e4567") || strings.Contains(s, "shhh") {
		t.Fatalf("raw values leaked: %s", s)
	}
}

func TestLogger_HeadersOffByDefault(t *testing.T) {
	r := loggedRouter(LogOptions{})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	buf := captureLogger(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Custom", "value")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if _, ok := accessLog(t, buf)["headers"]; ok {
		t.Fatalf("headers logged without LogHeaders")
	}
}

func TestRecovery(t *testing.T) {
	r := loggedRouter(LogOptions{})
	r.POST("/events/:id/archive", func(c *gin.Context) { panic("snapshot missing") })
	r.GET("/events/:id/due", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late failure")
	})

	buf := captureLogger(t)
	req := httptest.NewRequest(http.MethodPost, "/events/e1/archive", nil)
	req.Header.Set(requestIDHeader, "rid-panic")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d; want 500", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "internal_error" || body["request_id"] != "rid-panic" {
		t.Fatalf("body = %v", body)
	}
	var recovered map[string]any
	for _, e := range entries(t, buf) {
		if e["message"] == "panic recovered" {
			recovered = e
		}
	}
	if recovered == nil || recovered["panic"] != "snapshot missing" || recovered["request_id"] != "rid-panic" {
		t.Fatalf("panic log: %v", recovered)
	}

	// After the body is written the response is left as is.
	captureLogger(t)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/e1/due", nil))
	if w.Body.String() != "partial" {
		t.Fatalf("body after late panic = %q", w.Body.String())
	}
}

func TestLoggerFrom(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	bare := gin.New()
	bare.GET("/x", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("bare")
		c.Status(http.StatusOK)
	})
	bare.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if es := entries(t, buf); len(es) != 1 || es[0]["message"] != "bare" || es[0]["request_id"] != nil {
		t.Fatalf("fallback logger entries: %v", es)
	}

	buf = captureLogger(t)
	r := loggedRouter(LogOptions{})
	r.GET("/events/:id/due", func(c *gin.Context) {
		LoggerFrom(c).Info().Str("event_id", c.Param("id")).Msg("resolved")
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/events/e9/due", nil)
	req.Header.Set(HeaderWorkerID, "w-3")
	r.ServeHTTP(httptest.NewRecorder(), req)
	for _, e := range entries(t, buf) {
		if e["message"] == "resolved" {
			if e["worker_id"] != "w-3" || e["event_id"] != "e9" || e["request_id"] == "" {
				t.Fatalf("scoped entry: %v", e)
			}
			return
		}
	}
	t.Fatalf("scoped entry missing: %s", buf.String())
}

func TestWorkerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if WorkerID(c) != "" {
		t.Fatalf("worker id without request")
	}
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set(HeaderWorkerID, " w-header ")
	if got := WorkerID(c); got != "w-header" {
		t.Fatalf("header worker id = %q", got)
	}
	c.Set(workerIDKey, "")
	if got := WorkerID(c); got != "w-header" {
		t.Fatalf("empty context value should fall back, got %q", got)
	}
	c.Set(workerIDKey, "w-auth")
	if got := WorkerID(c); got != "w-auth" {
		t.Fatalf("context worker id = %q", got)
	}
}

func TestTruncateAndAsString(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"week=next", 20, "week=next"},
		{"week=next", 4, "week…"},
		{"week=next", 0, "week=next"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.max); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q; want %q", tc.in, tc.max, got, tc.want)
		}
	}
	if asString("rid") != "rid" || asString(7) != "" || asString(nil) != "" {
		t.Fatalf("asString")
	}
}
