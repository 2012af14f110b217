package middleware

import (
    "time"

    "github.com/gin-gonic/gin"

    "github.com/formpilot/formpilot/internal/util"
)

// RequestLogger logs basic request information along with the request_id.
// Paths and user agents are sanitized before logging.
func RequestLogger() gin.HandlerFunc {
    return func(c *gin.Context) {
        start := time.Now()
        c.Next()
        latency := time.Since(start)
        entry := GetRequestLogger(c)
        entry.WithFields(map[string]interface{}{
            "status":     c.Writer.Status(),
            "method":     c.Request.Method,
            "path":       SanitizePath(c.Request.URL.Path),
            "latency":    latency.String(),
            "client":     c.ClientIP(),
            "user_agent": util.SanitizeForLog(c.Request.UserAgent()),
        }).Info("handled request")
    }
}
