package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const ledgerRoute = "/participants/:id/archived-events"

func securedRouter(opt SecurityOptions, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(SecurityHeaders(opt))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET(ledgerRoute, ok)
	r.GET("/events/:id/due", ok)
	r.POST("/events/:id/archive", ok)
	return r
}

func hit(r http.Handler, req *http.Request) http.Header {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	h := hit(securedRouter(SecurityOptions{}), httptest.NewRequest(http.MethodGet, "/events/e1/due", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	}
	for k, v := range want {
		if h.Get(k) != v {
			t.Fatalf("%s = %q; want %q", k, h.Get(k), v)
		}
	}
	for _, k := range []string{"Cache-Control", "Permissions-Policy", "Strict-Transport-Security", "Access-Control-Expose-Headers"} {
		if h.Get(k) != "" {
			t.Fatalf("%s set without being enabled: %q", k, h.Get(k))
		}
	}
}

func TestSecurityHeaders_CachePolicy(t *testing.T) {
	r := securedRouter(SecurityOptions{NoStore: true, Revalidate: []string{ledgerRoute}})

	cases := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/participants/p1/archived-events", "private, no-cache"},
		{http.MethodGet, "/events/e1/due", "no-store"},
		{http.MethodPost, "/events/e1/archive", "no-store"},
	}
	for _, tc := range cases {
		h := hit(r, httptest.NewRequest(tc.method, tc.path, nil))
		if got := h.Get("Cache-Control"); got != tc.want {
			t.Fatalf("%s %s Cache-Control = %q; want %q", tc.method, tc.path, got, tc.want)
		}
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	r := securedRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 2 * time.Hour, EnablePolicy: true})

	plain := hit(r, httptest.NewRequest(http.MethodGet, "/events/e1/due", nil))
	if got := plain.Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS on plain HTTP: %q", got)
	}
	if plain.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %v", plain)
	}

	req := httptest.NewRequest(http.MethodGet, "/events/e1/due", nil)
	req.TLS = &tls.ConnectionState{}
	if got := hit(r, req).Get("Strict-Transport-Security"); got != "max-age=7200; includeSubDomains" {
		t.Fatalf("HSTS = %q", got)
	}

	def := securedRouter(SecurityOptions{EnableHSTS: true})
	req = httptest.NewRequest(http.MethodGet, "/events/e1/due", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	if got := hit(def, req).Get("Strict-Transport-Security"); got != "max-age=15552000; includeSubDomains" {
		t.Fatalf("default HSTS = %q", got)
	}
}

func TestIsHTTPS(t *testing.T) {
	cases := []struct {
		name   string
		header string
		value  string
		want   bool
	}{
		{"plain", "", "", false},
		{"x-forwarded https", "X-Forwarded-Proto", "https", true},
		{"x-forwarded http", "X-Forwarded-Proto", "http", false},
		{"forwarded quoted", "Forwarded", `for=192.0.2.60; proto="https"; by=203.0.113.43`, true},
		{"forwarded http", "Forwarded", "for=192.0.2.60;proto=http", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set(tc.header, tc.value)
		}
		if got := isHTTPS(req); got != tc.want {
			t.Fatalf("%s: isHTTPS = %v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestSecurityHeaders_ExposeList(t *testing.T) {
	withID := func(expose string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Header("X-Request-ID", "rid-1")
			if expose != "" {
				c.Header("Access-Control-Expose-Headers", expose)
			}
			c.Next()
		}
	}
	opt := SecurityOptions{Expose: []string{"Idempotency-Replayed", "ETag"}}

	cases := []struct {
		existing, want string
	}{
		{"", "X-Request-ID, Idempotency-Replayed, ETag"},
		{"Content-Length", "Content-Length, X-Request-ID, Idempotency-Replayed, ETag"},
		{"etag, x-request-id", "etag, x-request-id, Idempotency-Replayed"},
	}
	for _, tc := range cases {
		h := hit(securedRouter(opt, withID(tc.existing)), httptest.NewRequest(http.MethodGet, "/events/e1/due", nil))
		if got := h.Get("Access-Control-Expose-Headers"); got != tc.want {
			t.Fatalf("existing %q: expose = %q; want %q", tc.existing, got, tc.want)
		}
	}
}
