package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-generator/internal/models"
)

const (
	UserIDHeader   = "X-User-ID"
	AdminKeyHeader = "X-Admin-Key"

	userIDKey = "user_id"
)

// UserIdentity requires the caller's id, set by the authenticating proxy in
// front of this service.
func UserIdentity() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID := strings.TrimSpace(ctx.GetHeader(UserIDHeader))
		if userID == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.APIResponse{
				Success: false,
				Error:   "missing " + UserIDHeader + " header",
			})
			return
		}
		ctx.Set(userIDKey, userID)
		ctx.Next()
	}
}

// UserID returns the id stored by UserIdentity.
func UserID(ctx *gin.Context) string {
	return ctx.GetString(userIDKey)
}

// AdminOnly rejects requests without the configured admin key. An empty key
// disables the admin routes.
func AdminOnly(apiKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if apiKey == "" {
			ctx.AbortWithStatusJSON(http.StatusForbidden, models.APIResponse{
				Success: false,
				Error:   "admin API is disabled",
			})
			return
		}

		given := ctx.GetHeader(AdminKeyHeader)
		if subtle.ConstantTimeCompare([]byte(given), []byte(apiKey)) != 1 {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.APIResponse{
				Success: false,
				Error:   "invalid admin key",
			})
			return
		}
		ctx.Next()
	}
}
