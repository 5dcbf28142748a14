package account

import (
	"time"

	"github.com/google/uuid"
)

// LoginAttempt is one row of the login audit used for lockout. Email and IP
// are stored as SHA-256 hashes.
type LoginAttempt struct {
	ID          uuid.UUID `db:"id" json:"id"`
	EmailHash   string    `db:"email_hash" json:"-"`
	IPHash      string    `db:"ip_hash" json:"-"`
	Success     bool      `db:"is_success" json:"success"`
	AttemptedAt time.Time `db:"attempted_at" json:"attemptedAt"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"user_type"`
}

type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserType  string    `json:"user_type"`
	User      User      `json:"user"`
}
