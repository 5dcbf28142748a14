package client

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriplan/nutriplan/internal/platform/db"
)

var (
	ErrDietitianNotFound = errors.New("dietitian not found")
	ErrClientNotFound    = errors.New("client not found")
	ErrNoMeasurement     = errors.New("no physical details recorded")
	ErrDuplicateEmail    = errors.New("email already registered")
)

// -- Dietitian --

type dietitianRepoPG struct{ pool *pgxpool.Pool }

func NewDietitianRepoPG(pool *pgxpool.Pool) DietitianRepository {
	return &dietitianRepoPG{pool: pool}
}

func (r *dietitianRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const dietitianCols = `id, email_hash, password_hash, name, subscription_type, is_active, created_at`

func (r *dietitianRepoPG) scan(row pgx.Row) (*Dietitian, error) {
	var d Dietitian
	err := row.Scan(&d.ID, &d.EmailHash, &d.PasswordHash, &d.Name, &d.SubscriptionType, &d.IsActive, &d.CreatedAt)
	if db.IsNoRows(err) {
		return nil, ErrDietitianNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *dietitianRepoPG) Create(ctx context.Context, d *Dietitian) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO dietitian (id, email_hash, password_hash, name, subscription_type, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		d.ID, d.EmailHash, d.PasswordHash, d.Name, d.SubscriptionType, d.IsActive,
	).Scan(&d.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *dietitianRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Dietitian, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+dietitianCols+` FROM dietitian WHERE id = $1`, id))
}

func (r *dietitianRepoPG) GetByEmailHash(ctx context.Context, emailHash string) (*Dietitian, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+dietitianCols+` FROM dietitian WHERE email_hash = $1`, emailHash))
}

// -- Client --

type clientRepoPG struct{ pool *pgxpool.Pool }

func NewClientRepoPG(pool *pgxpool.Pool) ClientRepository {
	return &clientRepoPG{pool: pool}
}

func (r *clientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const clientCols = `id, email_hash, password_hash, name, date_of_birth, sex, dietitian_id, is_active, created_at`

func (r *clientRepoPG) scan(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.EmailHash, &c.PasswordHash, &c.Name, &c.DateOfBirth, &c.Sex, &c.DietitianID, &c.IsActive, &c.CreatedAt)
	if db.IsNoRows(err) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepoPG) Create(ctx context.Context, c *Client) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO client (id, email_hash, password_hash, name, date_of_birth, sex, dietitian_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		c.ID, c.EmailHash, c.PasswordHash, c.Name, c.DateOfBirth, c.Sex, c.DietitianID, c.IsActive,
	).Scan(&c.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *clientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+clientCols+` FROM client WHERE id = $1`, id))
}

func (r *clientRepoPG) GetByEmailHash(ctx context.Context, emailHash string) (*Client, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+clientCols+` FROM client WHERE email_hash = $1`, emailHash))
}

func (r *clientRepoPG) ListByDietitian(ctx context.Context, dietitianID uuid.UUID, activeOnly bool, limit, offset int) ([]*Client, int, error) {
	where := `dietitian_id = $1`
	if activeOnly {
		where += ` AND is_active`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM client WHERE `+where, dietitianID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+clientCols+` FROM client WHERE `+where+`
		ORDER BY name, id LIMIT $2 OFFSET $3`, dietitianID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Client
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *clientRepoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE client SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

// -- PhysicalDetails --

type physicalRepoPG struct{ pool *pgxpool.Pool }

func NewPhysicalRepoPG(pool *pgxpool.Pool) PhysicalRepository {
	return &physicalRepoPG{pool: pool}
}

func (r *physicalRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *physicalRepoPG) Create(ctx context.Context, p *PhysicalDetails) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO physical_details (id, client_id, recorded_by, activity_level, weight, height, body_fat, measurement_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.ClientID, p.RecordedBy, p.ActivityLevel, p.Weight, p.Height, p.BodyFat, p.MeasurementDate)
	return err
}

func (r *physicalRepoPG) Latest(ctx context.Context, clientID uuid.UUID) (*PhysicalDetails, error) {
	var p PhysicalDetails
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, client_id, recorded_by, activity_level, weight::float8, height::float8, body_fat::float8, measurement_date
		FROM physical_details WHERE client_id = $1
		ORDER BY measurement_date DESC, id DESC LIMIT 1`, clientID,
	).Scan(&p.ID, &p.ClientID, &p.RecordedBy, &p.ActivityLevel, &p.Weight, &p.Height, &p.BodyFat, &p.MeasurementDate)
	if db.IsNoRows(err) {
		return nil, ErrNoMeasurement
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// -- MedicalDetails --

type medicalRepoPG struct{ pool *pgxpool.Pool }

func NewMedicalRepoPG(pool *pgxpool.Pool) MedicalRepository {
	return &medicalRepoPG{pool: pool}
}

func (r *medicalRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *medicalRepoPG) Create(ctx context.Context, m *MedicalDetails) error {
	m.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_details (id, client_id, medical_data, recorded_by)
		VALUES ($1, $2, $3, $4)
		RETURNING recorded_on`,
		m.ID, m.ClientID, m.MedicalData, m.RecordedBy,
	).Scan(&m.RecordedOn)
}

func (r *medicalRepoPG) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*MedicalDetails, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, client_id, medical_data, recorded_by, recorded_on
		FROM medical_details WHERE client_id = $1
		ORDER BY recorded_on, id`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*MedicalDetails
	for rows.Next() {
		var m MedicalDetails
		if err := rows.Scan(&m.ID, &m.ClientID, &m.MedicalData, &m.RecordedBy, &m.RecordedOn); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}
