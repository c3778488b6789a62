package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// CtxUserID is the Gin context key middleware.KeyByUserOrIP and the
	// handlers' userID(c) helper both read.
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
	CtxUserName  = "userName"
)

// Middleware verifies the request's bearer token against secret and
// populates the context with the caller's identity. A missing or invalid
// token aborts the request with 401.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := Verify(secret, token)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserEmail, claims.Email)
		c.Set(CtxUserName, claims.Name)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    "missing or invalid bearer token",
	})
}
