package middleware

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"userauth/internal/models"
	"userauth/internal/repositories"
	"userauth/internal/services"
)

// Context keys set on every authenticated request.
const (
	CtxUserKey = "me"
	CtxRoleKey = "role"
)

func reject(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":  http.StatusUnauthorized,
		"success": false,
		"message": message,
		"url":     c.Request.URL.Path,
	})
}

// AuthMiddleware guards every protected route: it extracts the bearer
// token, verifies it and resolves the identity against the current
// store, so a renamed user is reflected without reissuing the token.
// On any rejection the downstream handler never runs.
func AuthMiddleware(tokens services.TokenService, users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			reject(c, "Unauthorize User")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			reject(c, "Unauthorize User")
			return
		}

		claims, err := tokens.VerifyAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			reject(c, "Invalid Authorization")
			return
		}

		me, err := users.GetByEmail(claims.Email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				reject(c, "Invalid User")
				return
			}
			log.Printf("[auth][middleware] identity lookup failed for %q: %v", claims.Email, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"status":  http.StatusInternalServerError,
				"success": false,
				"message": "Internal Server Error",
				"url":     c.Request.URL.Path,
			})
			return
		}
		if me == nil {
			reject(c, "Invalid User")
			return
		}

		c.Set(CtxUserKey, models.AuthUser{
			ID:    me.ID,
			Email: me.Email,
			Name:  me.Name,
		})
		c.Set(CtxRoleKey, me.Role)

		c.Next()
	}
}

// CurrentUser returns the identity attached by AuthMiddleware.
func CurrentUser(c *gin.Context) (models.AuthUser, bool) {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return models.AuthUser{}, false
	}
	me, ok := v.(models.AuthUser)
	return me, ok
}

// RequireRoles allows the request only when the resolved identity has
// one of the listed roles.
func RequireRoles(allowed ...string) gin.HandlerFunc {
	allowedSet := map[string]struct{}{}
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		v, exists := c.Get(CtxRoleKey)
		if !exists {
			reject(c, "Unauthorize User")
			return
		}
		role, _ := v.(string)
		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":  http.StatusForbidden,
				"success": false,
				"message": "Forbidden",
				"url":     c.Request.URL.Path,
			})
			return
		}
		c.Next()
	}
}
