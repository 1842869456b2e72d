package discord

import (
	"encoding/base64"
	"strings"
)

// UserIDFromToken decodes the user ID encoded in the first segment of a token.
// Tokens without a decodable numeric segment (e.g. legacy "mfa." tokens) return false.
func UserIDFromToken(token string) (string, bool) {
	token = strings.TrimSpace(token)
	segment, _, found := strings.Cut(token, ".")
	if !found || segment == "" || segment == "mfa" {
		return "", false
	}
	segment = strings.TrimRight(segment, "=")

	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.RawURLEncoding} {
		decoded, err := enc.DecodeString(segment)
		if err != nil {
			continue
		}
		if id := string(decoded); isSnowflake(id) {
			return id, true
		}
	}
	return "", false
}

// EncodeUserID builds the first token segment for userID
func EncodeUserID(userID string) string {
	return base64.RawStdEncoding.EncodeToString([]byte(userID))
}

func isSnowflake(s string) bool {
	if s == "" || len(s) > 20 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
