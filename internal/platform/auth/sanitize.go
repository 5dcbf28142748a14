package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

const (
	MaxEmailLength   = 254
	MaxPasswordBytes = 72 // bcrypt ignores anything longer
	MinPasswordChars = 6
	maxInputLength   = 255
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var maliciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER)\b`),
	regexp.MustCompile(`(--|;|/\*|\*/|xp_|sp_)`),
	regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=)`),
	regexp.MustCompile(`(\.\./|\.\.\\)`),
	regexp.MustCompile(`(\$\{|\{\{)`),
}

// IsMaliciousInput flags empty or oversized text and text containing SQL,
// script or template injection markers.
func IsMaliciousInput(s string) bool {
	if len(s) == 0 || len(s) > maxInputLength {
		return true
	}
	for _, p := range maliciousPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// SanitizeEmail returns the trimmed, lower-cased email, or false when it is
// malformed or suspicious.
func SanitizeEmail(email string) (string, bool) {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > MaxEmailLength {
		return "", false
	}
	if !emailPattern.MatchString(email) || IsMaliciousInput(email) {
		return "", false
	}
	return strings.ToLower(email), true
}

// SanitizePassword checks length bounds and injection markers. The password
// itself is returned unchanged.
func SanitizePassword(password string) (string, bool) {
	if len(password) > MaxPasswordBytes || len([]rune(password)) < MinPasswordChars {
		return "", false
	}
	if IsMaliciousInput(password) {
		return "", false
	}
	return password, true
}

// HashEmail returns the hex SHA-256 of the lower-cased email. Accounts are
// looked up by this hash.
func HashEmail(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}

// HashIP returns the hex SHA-256 of ip, or "" when ip is empty.
func HashIP(ip string) string {
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}
