package account

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriplan/nutriplan/internal/platform/db"
)

type attemptRepoPG struct{ pool *pgxpool.Pool }

func NewAttemptRepoPG(pool *pgxpool.Pool) AttemptRepository {
	return &attemptRepoPG{pool: pool}
}

func (r *attemptRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *attemptRepoPG) Record(ctx context.Context, a *LoginAttempt) error {
	a.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO login_attempt (id, email_hash, ip_hash, is_success)
		VALUES ($1, $2, $3, $4)
		RETURNING attempted_at`,
		a.ID, nullString(a.EmailHash), nullString(a.IPHash), a.Success,
	).Scan(&a.AttemptedAt)
}

func (r *attemptRepoPG) CountFailures(ctx context.Context, ipHash string, since time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM login_attempt
		WHERE ip_hash = $1 AND NOT is_success
		  AND attempted_at >= GREATEST($2, COALESCE(
		      (SELECT MAX(attempted_at) FROM login_attempt WHERE ip_hash = $1 AND is_success), $2))`,
		ipHash, since,
	).Scan(&n)
	return n, err
}
