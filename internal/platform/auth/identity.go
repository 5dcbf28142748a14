package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind distinguishes the two account tables a caller can log in from.
type Kind string

const (
	KindDietitian Kind = "dietitian"
	KindClient    Kind = "client"
)

// ParseKind accepts "dietitian" or "client" in any case.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindDietitian:
		return KindDietitian, nil
	case KindClient:
		return KindClient, nil
	}
	return "", fmt.Errorf("unknown user type %q", s)
}

// Identity is the authenticated caller. It is resolved once per request by
// JWTMiddleware.
type Identity struct {
	Kind Kind      `json:"userType"`
	ID   uuid.UUID `json:"id"`
}

func (i Identity) IsDietitian() bool { return i.Kind == KindDietitian }
func (i Identity) IsClient() bool    { return i.Kind == KindClient }

func (i Identity) String() string {
	return string(i.Kind) + ":" + i.ID.String()
}

type contextKey string

const IdentityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// IdentityFromContext returns the caller set by JWTMiddleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(Identity)
	return id, ok
}
