package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

type stubParser struct{ valid string }

func (p stubParser) ParseToken(token string) (*jwt.RegisteredClaims, error) {
	if token != p.valid {
		return nil, errors.New("bad token")
	}
	return &jwt.RegisteredClaims{Subject: "admin"}, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", RequireAdmin(stubParser{valid: "good"}), func(c *gin.Context) {
		claims := c.MustGet(ClaimsKey).(*jwt.RegisteredClaims)
		c.String(http.StatusOK, claims.Subject)
	})
	return r
}

func TestRequireAdmin(t *testing.T) {
	tests := map[string]struct {
		header string
		query  string
		status int
	}{
		"missing header": {"", "", http.StatusUnauthorized},
		"wrong scheme":   {"Basic good", "", http.StatusUnauthorized},
		"invalid token":  {"Bearer bad", "", http.StatusUnauthorized},
		"valid token":    {"Bearer good", "", http.StatusOK},
		"query token":    {"", "?token=good", http.StatusOK},
		"bad query":      {"", "?token=bad", http.StatusUnauthorized},
	}

	router := newRouter()
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
