package account

import (
	"context"
	"time"
)

type AttemptRepository interface {
	Record(ctx context.Context, a *LoginAttempt) error
	// CountFailures counts failed attempts from ipHash since the given time
	// and since the last successful login from it.
	CountFailures(ctx context.Context, ipHash string, since time.Time) (int, error)
}
