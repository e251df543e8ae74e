package types

import (
	"strings"
)

var secretFragments = []string{
	"secret", "password", "passwd", "pwd", "token",
	"api_key", "apikey", "access_key", "private_key",
	"credential", "auth", "cert", "signing", "salt",
	"jwt", "session", "cookie", "encryption", "cipher",
}

var connectionFragments = []string{
	"database_url", "db_url", "dsn", "connection_string",
	"postgres_url", "mysql_url", "mongodb_url", "redis_url",
}

// IsSensitive reports whether a variable name looks like it holds a secret.
// Values of sensitive variables are masked in human-readable reports.
func IsSensitive(name string) bool {
	lower := strings.ToLower(name)

	for _, fragment := range connectionFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}

	for _, fragment := range secretFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}

	// KEY alone is too broad (KEYBOARD_LAYOUT), only trust it as a suffix
	return strings.HasSuffix(lower, "_key") || lower == "key"
}

// Mask hides all but a short prefix of value
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + strings.Repeat("*", min(len(value)-2, 8))
}
