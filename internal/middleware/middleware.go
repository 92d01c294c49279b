// Package middleware provides HTTP middleware for the application
package middleware

import (
	"crypto/subtle"
	"strings"
	"time"

	app_errors "github.com/vzwork/locus/internal/errors"
	"github.com/vzwork/locus/internal/response"
	"github.com/vzwork/locus/internal/types"
	"github.com/vzwork/locus/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger creates a logging middleware
func Logger(config types.LogConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		// Process request first, so auth middleware can sanitize sensitive params
		c.Next()

		latency := time.Since(start)
		method := c.Request.Method
		statusCode := c.Writer.Status()

		// Sanitize URL to keep auth keys out of the logs
		fullPath := utils.SanitizeURLForLog(c.Request.URL)

		// Filter health check logs to reduce noise
		if isMonitoringEndpoint(path) {
			if statusCode >= 400 {
				logrus.Warnf("%s %s - %d - %v", method, fullPath, statusCode, latency)
			}
			return
		}

		if statusCode >= 500 {
			logrus.Errorf("%s %s - %d - %v", method, fullPath, statusCode, latency)
		} else if statusCode >= 400 {
			logrus.Warnf("%s %s - %d - %v", method, fullPath, statusCode, latency)
		} else {
			logrus.Infof("%s %s - %d - %v", method, fullPath, statusCode, latency)
		}
	}
}

// CORS creates a CORS middleware with efficient preflight handling
func CORS(config types.CORSConfig) gin.HandlerFunc {
	allowedMethods := strings.Join(config.AllowedMethods, ", ")
	allowedHeaders := strings.Join(config.AllowedHeaders, ", ")

	allowedOriginsMap := make(map[string]bool, len(config.AllowedOrigins))
	hasWildcard := false
	for _, origin := range config.AllowedOrigins {
		if origin == "*" {
			hasWildcard = true
		} else {
			allowedOriginsMap[origin] = true
		}
	}
	if hasWildcard && !config.AllowCredentials {
		allowedOriginsMap = nil
	}
	if config.AllowCredentials && len(config.AllowedOrigins) == 1 && config.AllowedOrigins[0] == "*" {
		logrus.Warn("CORS configuration uses AllowedOrigins=['*'] with AllowCredentials=true; this blocks all credentialed CORS requests. Configure explicit origins instead.")
	}

	return func(c *gin.Context) {
		if !config.Enabled {
			c.Next()
			return
		}

		origin := c.Request.Header.Get("Origin")

		// Fast path: handle preflight requests immediately
		if c.Request.Method == "OPTIONS" {
			if isOriginAllowed(origin, hasWildcard, config.AllowCredentials, allowedOriginsMap) {
				setAllowOriginHeader(c, origin, hasWildcard, config.AllowCredentials)
				c.Header("Access-Control-Allow-Methods", allowedMethods)
				c.Header("Access-Control-Allow-Headers", allowedHeaders)
				if config.AllowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
				c.Header("Access-Control-Max-Age", "86400") // 24 hours
			}

			c.AbortWithStatus(204)
			return
		}

		if isOriginAllowed(origin, hasWildcard, config.AllowCredentials, allowedOriginsMap) {
			setAllowOriginHeader(c, origin, hasWildcard, config.AllowCredentials)
			c.Header("Access-Control-Allow-Methods", allowedMethods)
			c.Header("Access-Control-Allow-Headers", allowedHeaders)
			if config.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
		}

		c.Next()
	}
}

// isOriginAllowed checks if the origin is allowed based on CORS configuration
func isOriginAllowed(origin string, hasWildcard, allowCredentials bool, allowedOriginsMap map[string]bool) bool {
	if hasWildcard && !allowCredentials {
		// Wildcard is only valid when credentials are not allowed
		return true
	}
	return allowedOriginsMap[origin]
}

// setAllowOriginHeader sets the Access-Control-Allow-Origin header and Vary header if needed
func setAllowOriginHeader(c *gin.Context, origin string, hasWildcard, allowCredentials bool) {
	if hasWildcard && !allowCredentials {
		c.Header("Access-Control-Allow-Origin", "*")
	} else {
		c.Header("Access-Control-Allow-Origin", origin)
		addVaryOriginHeader(c)
	}
}

// addVaryOriginHeader adds "Origin" to the Vary header if not already present
func addVaryOriginHeader(c *gin.Context) {
	vary := c.Writer.Header().Get("Vary")
	if vary == "" {
		c.Header("Vary", "Origin")
		return
	}

	for _, h := range strings.Split(vary, ",") {
		if strings.TrimSpace(h) == "Origin" {
			return
		}
	}

	c.Header("Vary", vary+", Origin")
}

// Auth creates an authentication middleware
func Auth(authConfig types.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if isMonitoringEndpoint(path) {
			c.Next()
			return
		}

		key := extractAuthKey(c)

		isValid := key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(authConfig.Key)) == 1

		if !isValid {
			response.Error(c, app_errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Next()
	}
}

// Recovery creates a recovery middleware with custom error handling
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logrus.Errorf("Panic recovered: %v", recovered)
		response.Error(c, app_errors.ErrInternalServer)
		c.Abort()
	})
}

// ErrorHandler creates an error handling middleware
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err

			if apiErr, ok := err.(*app_errors.APIError); ok {
				response.Error(c, apiErr)
				return
			}

			logrus.Errorf("Unhandled error: %v", err)
			response.Error(c, app_errors.ErrInternalServer)
		}
	}
}

// isMonitoringEndpoint checks if the path is a monitoring endpoint
func isMonitoringEndpoint(path string) bool {
	monitoringPaths := []string{"/health"}
	for _, monitoringPath := range monitoringPaths {
		if path == monitoringPath {
			return true
		}
	}
	return false
}

// extractAuthKey extracts a auth key.
func extractAuthKey(c *gin.Context) string {
	// Query key
	if key := c.Query("key"); key != "" {
		query := c.Request.URL.Query()
		query.Del("key")
		c.Request.URL.RawQuery = query.Encode()
		return key
	}

	// Bearer token
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		const bearerPrefix = "Bearer "
		if strings.HasPrefix(authHeader, bearerPrefix) {
			return authHeader[len(bearerPrefix):]
		}
	}

	// X-Api-Key
	if key := c.GetHeader("X-Api-Key"); key != "" {
		return key
	}

	return ""
}
