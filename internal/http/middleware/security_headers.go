package middleware

import "github.com/gin-gonic/gin"

// SecurityHeaders adds security headers. Responses are private per user, so
// nothing is cached unless a handler says otherwise.
func SecurityHeaders() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("X-Frame-Options", "DENY")
		ctx.Header("X-Content-Type-Options", "nosniff")
		ctx.Header("X-XSS-Protection", "1; mode=block")
		ctx.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		ctx.Header("Referrer-Policy", "no-referrer")
		ctx.Header("Cache-Control", "no-store")
		ctx.Next()
	}
}
