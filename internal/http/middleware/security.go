// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// SecurityHeaders attaches the response headers every API reply carries:
// content sniffing and framing protection, the cache policy for schedule
// and ledger data, and HSTS when served over HTTPS.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	cacheNoStore    = "no-store"
	cacheRevalidate = "private, no-cache"
)

// SecurityOptions configures SecurityHeaders.
//
// With NoStore set, responses are marked Cache-Control: no-store, except
// GETs on a Revalidate route, which may be kept by the client but must be
// revalidated (they carry an ETag). Revalidate entries are Gin route
// patterns such as "/api/v1/participants/:id/archived-events".
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration // 180 days when zero
	NoStore      bool
	Revalidate   []string
	EnablePolicy bool     // Permissions-Policy and X-Permitted-Cross-Domain-Policies
	Expose       []string // extra Access-Control-Expose-Headers entries
}

// SecurityHeaders returns the middleware described by opt. X-Request-ID is
// always exposed when present.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	age := opt.HSTSMaxAge
	if age <= 0 {
		age = 180 * 24 * time.Hour
	}
	hsts := "max-age=" + strconv.FormatInt(int64(age/time.Second), 10) + "; includeSubDomains"

	revalidate := make(map[string]struct{}, len(opt.Revalidate))
	for _, p := range opt.Revalidate {
		revalidate[p] = struct{}{}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore {
			h.Set("Cache-Control", cachePolicy(c, revalidate))
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if h.Get("X-Request-ID") != "" {
			exposeHeader(h, "X-Request-ID")
		}
		for _, name := range opt.Expose {
			exposeHeader(h, name)
		}
		c.Next()
	}
}

func cachePolicy(c *gin.Context, revalidate map[string]struct{}) string {
	if m := c.Request.Method; m != http.MethodGet && m != http.MethodHead {
		return cacheNoStore
	}
	if _, ok := revalidate[c.FullPath()]; ok {
		return cacheRevalidate
	}
	return cacheNoStore
}

// isHTTPS reports whether the client reached us over TLS, directly or
// through a proxy announcing it via X-Forwarded-Proto or Forwarded.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	for _, elem := range strings.Split(r.Header.Get("Forwarded"), ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(elem), "=")
		if ok && strings.EqualFold(k, "proto") && strings.EqualFold(strings.Trim(v, `"`), "https") {
			return true
		}
	}
	return false
}

// exposeHeader appends name to Access-Control-Expose-Headers once.
func exposeHeader(h http.Header, name string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	if cur == "" {
		h.Set(key, name)
		return
	}
	for _, v := range strings.Split(cur, ",") {
		if strings.EqualFold(strings.TrimSpace(v), name) {
			return
		}
	}
	h.Set(key, cur+", "+name)
}
