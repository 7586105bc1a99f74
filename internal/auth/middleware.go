package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Tesudeix/Yuki/internal/api"
	"github.com/Tesudeix/Yuki/internal/apperr"
)

const identityKey = "auth.identity"

func unauthorized(c *gin.Context, msg string) {
	api.RespondError(c, apperr.New(apperr.KindUnauthenticated, msg))
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AuthMiddleware admits requests carrying a valid access token and stores
// the caller's Identity on the context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "Authorization header required")
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		id, err := Verify(token, secret, AccessToken)
		switch {
		case err == nil:
		case errors.Is(err, ErrTokenExpired):
			unauthorized(c, "Token expired")
			return
		case errors.Is(err, ErrWrongTokenKind):
			unauthorized(c, "Access token required")
			return
		default:
			unauthorized(c, "Invalid or malformed token")
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			unauthorized(c, "Authentication required")
			return
		}

		for _, role := range roles {
			if id.Role == role {
				c.Next()
				return
			}
		}
		api.RespondError(c, apperr.New(apperr.KindForbidden, "Insufficient permissions"))
	}
}

func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// GetUserID returns the authenticated user id set by AuthMiddleware.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := CurrentIdentity(c)
	if !ok {
		return uuid.Nil, false
	}
	return id.UserID, true
}
