package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jurix/jurix/infrastructure/service/logger"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name             string
		origins          []string
		credentials      bool
		method           string
		origin           string
		preflight        bool
		expectedStatus   int
		expectedOrigin   string
		expectedCredsHdr string
	}{
		{name: "allowed origin", origins: []string{"https://app.jurix.io"}, credentials: true, method: http.MethodGet, origin: "https://app.jurix.io", expectedStatus: http.StatusOK, expectedOrigin: "https://app.jurix.io", expectedCredsHdr: "true"},
		{name: "unknown origin", origins: []string{"https://app.jurix.io"}, method: http.MethodGet, origin: "https://evil.example", expectedStatus: http.StatusOK},
		{name: "wildcard", origins: []string{"*"}, credentials: true, method: http.MethodGet, origin: "https://any.example", expectedStatus: http.StatusOK, expectedOrigin: "*"},
		{name: "preflight", origins: []string{"https://app.jurix.io"}, method: http.MethodOptions, origin: "https://app.jurix.io", preflight: true, expectedStatus: http.StatusNoContent, expectedOrigin: "https://app.jurix.io"},
		{name: "plain options passes through", origins: []string{"https://app.jurix.io"}, method: http.MethodOptions, origin: "https://app.jurix.io", expectedStatus: http.StatusOK, expectedOrigin: "https://app.jurix.io"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/contracts", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()

			CORS(tt.origins, tt.credentials)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.expectedCredsHdr, w.Header().Get("Access-Control-Allow-Credentials"))
			if tt.preflight {
				assert.True(t, strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "Authorization"))
			}
		})
	}
}

func TestCorrelationIDMiddleware(t *testing.T) {
	var seen string
	h := CorrelationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.CorrelationID(r.Context())
	}))

	t.Run("propagates client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationIDHeader, "req-42")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, "req-42", seen)
		assert.Equal(t, "req-42", w.Header().Get(CorrelationIDHeader))
	})

	t.Run("generates when missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Len(t, seen, 36)
		assert.Equal(t, seen, w.Header().Get(CorrelationIDHeader))
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationIDHeader, strings.Repeat("x", 200))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Len(t, seen, 36)
	})
}
