package utils

import (
	"os"
	"strconv"
	"strings"
)

// ParseInteger parses an environment variable as an integer with a default value
func ParseInteger(envVar string, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// ParseBoolean parses an environment variable as a boolean with a default value
func ParseBoolean(envVar string, defaultValue bool) bool {
	if value := os.Getenv(envVar); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// ParseString returns an environment variable or a default value
func ParseString(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// ParseArray parses a comma-separated environment variable into a slice
func ParseArray(envVar string, defaultValue []string) []string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
