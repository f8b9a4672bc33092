package utils

import "fmt"

// GenerateRateLimitKey creates a unique key for rate limiting
func GenerateRateLimitKey(apiKeyID uint, path string) string {
	return fmt.Sprintf("rl:%d:%s", apiKeyID, path)
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}
