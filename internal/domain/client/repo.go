package client

import (
	"context"

	"github.com/google/uuid"
)

type DietitianRepository interface {
	Create(ctx context.Context, d *Dietitian) error
	GetByID(ctx context.Context, id uuid.UUID) (*Dietitian, error)
	GetByEmailHash(ctx context.Context, emailHash string) (*Dietitian, error)
}

type ClientRepository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)
	GetByEmailHash(ctx context.Context, emailHash string) (*Client, error)
	// ListByDietitian returns the dietitian's clients ordered by name.
	ListByDietitian(ctx context.Context, dietitianID uuid.UUID, activeOnly bool, limit, offset int) ([]*Client, int, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type PhysicalRepository interface {
	Create(ctx context.Context, p *PhysicalDetails) error
	// Latest returns the measurement with the greatest date.
	Latest(ctx context.Context, clientID uuid.UUID) (*PhysicalDetails, error)
}

type MedicalRepository interface {
	Create(ctx context.Context, m *MedicalDetails) error
	// ListByClient returns notes in recording order.
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*MedicalDetails, error)
}
