// Package auth guards the admin routes with a bearer token
package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/gravadigital/urna-cipa/internal/response"
)

// ClaimsKey is the gin context key holding the verified claims
const ClaimsKey = "admin_claims"

// TokenParser verifies an admin token
type TokenParser interface {
	ParseToken(token string) (*jwt.RegisteredClaims, error)
}

// RequireAdmin aborts with 401 unless the request carries a valid bearer token.
// Browsers cannot set headers on a websocket handshake, so ?token= is accepted too.
func RequireAdmin(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok {
			token = c.Query("token")
		}
		if strings.TrimSpace(token) == "" {
			response.UnauthorizedError(c, "Token de autorização não encontrado")
			c.Abort()
			return
		}

		claims, err := parser.ParseToken(strings.TrimSpace(token))
		if err != nil {
			response.UnauthorizedError(c, "Token inválido")
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
