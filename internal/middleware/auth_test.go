package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"taskhub/internal/services"
)

func newRouter(tokens *services.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.Use(AuthMiddleware(tokens))
	r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })
	r.POST("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tokens := services.NewTokenService("secret", "taskhub", time.Hour)
	r := newRouter(tokens)
	good, _, err := tokens.Issue("user-7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name   string
		method string
		path   string
		header string
		want   int
		body   string
	}{
		{"valid token", http.MethodGet, "/me", "Bearer " + good, http.StatusOK, "user-7"},
		{"missing header", http.MethodGet, "/me", "", http.StatusUnauthorized, ""},
		{"wrong scheme", http.MethodGet, "/me", "Token " + good, http.StatusUnauthorized, ""},
		{"bad token", http.MethodGet, "/me", "Bearer nope", http.StatusUnauthorized, ""},
		{"no public bypass", http.MethodPost, "/auth/login", "", http.StatusUnauthorized, ""},
		{"preflight", http.MethodOptions, "/me", "", http.StatusNoContent, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, w.Code, w.Body.String())
			}
			if tc.body != "" && w.Body.String() != tc.body {
				t.Fatalf("expected body %q, got %q", tc.body, w.Body.String())
			}
		})
	}
}
