package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriplan/nutriplan/internal/platform/db"
)

// ErrItemNotFound is returned by the repository when no row matches.
var ErrItemNotFound = errors.New("item not found")

type itemRepoPG struct{ pool *pgxpool.Pool }

func NewItemRepoPG(pool *pgxpool.Pool) ItemRepository {
	return &itemRepoPG{pool: pool}
}

func (r *itemRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const itemCols = `id, name, protein, carb, fat, fiber, vitamins, minerals`

func (r *itemRepoPG) scanItem(row pgx.Row) (*Item, error) {
	var i Item
	var vitamins, minerals []byte
	err := row.Scan(&i.ID, &i.Name, &i.Protein, &i.Carb, &i.Fat, &i.Fiber, &vitamins, &minerals)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	i.Vitamins, i.Minerals = vitamins, minerals
	return &i, nil
}

func (r *itemRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	return r.scanItem(r.conn(ctx).QueryRow(ctx, `SELECT `+itemCols+` FROM item WHERE id = $1`, id))
}

func (r *itemRepoPG) GetByName(ctx context.Context, name string) (*Item, error) {
	return r.scanItem(r.conn(ctx).QueryRow(ctx, `SELECT `+itemCols+` FROM item WHERE name = $1`, name))
}

func (r *itemRepoPG) CreateIfAbsent(ctx context.Context, item *Item) (*Item, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	created, err := r.scanItem(r.conn(ctx).QueryRow(ctx, `
		INSERT INTO item (`+itemCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (name) DO NOTHING
		RETURNING `+itemCols,
		item.ID, item.Name, item.Protein, item.Carb, item.Fat, item.Fiber,
		nullJSON(item.Vitamins), nullJSON(item.Minerals)))
	if errors.Is(err, ErrItemNotFound) {
		return r.GetByName(ctx, item.Name)
	}
	return created, err
}

func (r *itemRepoPG) List(ctx context.Context, limit, offset int) ([]*Item, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM item`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+itemCols+` FROM item ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.collect(rows)
	return items, total, err
}

func (r *itemRepoPG) ListAll(ctx context.Context) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+itemCols+` FROM item ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *itemRepoPG) collect(rows pgx.Rows) ([]*Item, error) {
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		i, err := r.scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func nullJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
