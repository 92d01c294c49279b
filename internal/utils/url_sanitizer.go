package utils

import (
	"net/url"
	"strings"
)

// sensitiveParams are query parameters that must never reach the logs.
var sensitiveParams = []string{"key", "api_key", "apikey", "token", "access_token", "auth"}

// SanitizeURLForLog returns a loggable form of the URL with credentials
// removed: userinfo is dropped and sensitive query parameters are redacted.
func SanitizeURLForLog(u *url.URL) string {
	if u == nil {
		return ""
	}

	sanitized := *u
	sanitized.User = nil

	if sanitized.RawQuery != "" {
		query := sanitized.Query()
		for _, param := range sensitiveParams {
			if query.Has(param) {
				query.Set(param, "REDACTED")
			}
		}
		sanitized.RawQuery = query.Encode()
	}

	return sanitized.String()
}

// SanitizeURLStringForLog is a convenience wrapper for raw URL strings. On a
// parse failure it falls back to stripping the userinfo segment.
func SanitizeURLStringForLog(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if u, err := url.Parse(s); err == nil {
		return SanitizeURLForLog(u)
	}
	schemeIdx := strings.Index(s, "://")
	atIdx := strings.LastIndex(s, "@")
	if schemeIdx >= 0 && atIdx > schemeIdx+3 {
		return s[:schemeIdx+3] + s[atIdx+1:]
	}
	return s
}
