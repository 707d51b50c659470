package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pawtraitstudio/pawtrait-api/internal/middleware"
	"github.com/stretchr/testify/assert"
)

func headersFor(env string, setup func(r *http.Request)) http.Header {
	handler := middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: env})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Header()
}

func TestSecurityHeaders_AlwaysSet(t *testing.T) {
	headers := headersFor("production", nil)

	assert.Equal(t, "DENY", headers.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", headers.Get("Referrer-Policy"))
	assert.NotEmpty(t, headers.Get("Content-Security-Policy"))
	assert.NotEmpty(t, headers.Get("Permissions-Policy"))
}

func TestSecurityHeaders_ProductionCSPIsStrict(t *testing.T) {
	prod := headersFor("production", nil).Get("Content-Security-Policy")
	dev := headersFor("development", nil).Get("Content-Security-Policy")

	assert.NotContains(t, prod, "unsafe-eval")
	assert.Contains(t, dev, "unsafe-eval")
}

func TestSecurityHeaders_HSTSOnlyOverHTTPSInProduction(t *testing.T) {
	plain := headersFor("production", nil)
	assert.Empty(t, plain.Get("Strict-Transport-Security"))

	forwarded := headersFor("production", func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "https")
	})
	assert.Contains(t, forwarded.Get("Strict-Transport-Security"), "max-age=31536000")

	dev := headersFor("development", func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "https")
	})
	assert.Empty(t, dev.Get("Strict-Transport-Security"))
}
