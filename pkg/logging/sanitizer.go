package logging

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	// MaxBodyLogLength is the maximum length of an upstream response body to log
	MaxBodyLogLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Bearer and Rebrickable-style "key <token>" authorization values
	authHeaderPattern = regexp.MustCompile(`(?i)\b(Bearer|key)\s+[A-Za-z0-9._~+/=-]{16,}`)

	// Pattern to match potential API keys in query strings or key=value text
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key|token)=[A-Za-z0-9._~-]{8,}`)

	// OpenAI/Anthropic style secret keys appearing anywhere in text
	secretKeyPattern = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{16,}`)

	sensitiveQueryParams = []string{"key", "api_key", "apikey", "token", "access_token"}
)

// SanitizeError sanitizes error messages that might contain credentials.
// Use this before logging any error from an upstream service call.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeText(err.Error())
}

// SanitizeText removes credentials from arbitrary text.
func SanitizeText(s string) string {
	if s == "" {
		return ""
	}

	sanitized := authHeaderPattern.ReplaceAllString(s, "${1} "+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = secretKeyPattern.ReplaceAllString(sanitized, RedactedText)

	return sanitized
}

// SanitizeURL redacts credential query parameters and userinfo from a URL.
// Unparseable input falls back to text sanitization.
func SanitizeURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return SanitizeText(raw)
	}

	if u.User != nil {
		u.User = url.User(RedactedText)
	}

	q := u.Query()
	changed := false
	for _, param := range sensitiveQueryParams {
		for existing := range q {
			if strings.EqualFold(existing, param) {
				q.Set(existing, RedactedText)
				changed = true
			}
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}

	return u.String()
}

// SanitizeBody truncates and sanitizes an upstream response body for logging.
func SanitizeBody(body []byte) string {
	return SanitizeText(TruncateString(strings.TrimSpace(string(body)), MaxBodyLogLength))
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
