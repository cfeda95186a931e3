package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	principalKey      = "principal"
	idempotencyHeader = "Idempotency-Key"
)

// principalMiddleware resolves a bearer token to the caller's principal.
// Requests without a token continue as guests; a bad token is rejected.
func principalMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}
		claims, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(principalKey, claims.Subject)
		c.Next()
	}
}

func requirePrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// principal is the authenticated caller, or "" for a guest.
func principal(c *gin.Context) string {
	return c.GetString(principalKey)
}
