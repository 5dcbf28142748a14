package catalog

import (
	"context"

	"github.com/google/uuid"
)

type ItemRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	// GetByName matches the exact, case-sensitive name.
	GetByName(ctx context.Context, name string) (*Item, error)
	// CreateIfAbsent inserts item unless an item with the same name exists,
	// and returns whichever row is stored under that name.
	CreateIfAbsent(ctx context.Context, item *Item) (*Item, error)
	List(ctx context.Context, limit, offset int) ([]*Item, int, error)
	ListAll(ctx context.Context) ([]*Item, error)
}
