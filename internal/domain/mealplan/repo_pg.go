package mealplan

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriplan/nutriplan/internal/platform/db"
)

var (
	ErrPlanNotFound     = errors.New("meal plan not found")
	ErrMealNotFound     = errors.New("meal not found")
	ErrMealItemNotFound = errors.New("meal item not found")
	ErrPlanExists       = errors.New("meal plan already exists for this date")
)

// -- Plan --

type planRepoPG struct{ pool *pgxpool.Pool }

func NewPlanRepoPG(pool *pgxpool.Pool) PlanRepository {
	return &planRepoPG{pool: pool}
}

func (r *planRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *planRepoPG) scan(row pgx.Row) (*Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.ClientID, &p.PlanDate, &p.CreatedAt)
	if db.IsNoRows(err) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *planRepoPG) Create(ctx context.Context, p *Plan) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO daily_meal_plan (id, client_id, plan_date)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		p.ID, p.ClientID, p.PlanDate,
	).Scan(&p.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrPlanExists
	}
	return err
}

func (r *planRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `
		SELECT id, client_id, plan_date, created_at FROM daily_meal_plan WHERE id = $1`, id))
}

func (r *planRepoPG) GetByClientDate(ctx context.Context, clientID uuid.UUID, date time.Time) (*Plan, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `
		SELECT id, client_id, plan_date, created_at FROM daily_meal_plan
		WHERE client_id = $1 AND plan_date = $2`, clientID, date))
}

func (r *planRepoPG) DeleteByClientDate(ctx context.Context, clientID uuid.UUID, date time.Time) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM daily_meal_plan WHERE client_id = $1 AND plan_date = $2`, clientID, date)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *planRepoPG) ListDates(ctx context.Context, clientID uuid.UUID) ([]time.Time, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT plan_date FROM daily_meal_plan WHERE client_id = $1 ORDER BY plan_date DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// -- Meal --

type mealRepoPG struct{ pool *pgxpool.Pool }

func NewMealRepoPG(pool *pgxpool.Pool) MealRepository {
	return &mealRepoPG{pool: pool}
}

func (r *mealRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const mealCols = `id, plan_id, name, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), position`

func (r *mealRepoPG) scan(row pgx.Row) (*Meal, error) {
	var m Meal
	err := row.Scan(&m.ID, &m.PlanID, &m.Name, &m.StartTime, &m.EndTime, &m.Position)
	if db.IsNoRows(err) {
		return nil, ErrMealNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mealRepoPG) Create(ctx context.Context, m *Meal) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO meal (id, plan_id, name, start_time, end_time, position)
		VALUES ($1, $2, $3, $4::time, $5::time, $6)`,
		m.ID, m.PlanID, m.Name, m.StartTime, m.EndTime, m.Position)
	return err
}

func (r *mealRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Meal, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+mealCols+` FROM meal WHERE id = $1`, id))
}

func (r *mealRepoPG) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*Meal, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+mealCols+` FROM meal WHERE plan_id = $1
		ORDER BY start_time ASC NULLS LAST, position`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var meals []*Meal
	for rows.Next() {
		m, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

// -- MealItem --

type mealItemRepoPG struct{ pool *pgxpool.Pool }

func NewMealItemRepoPG(pool *pgxpool.Pool) MealItemRepository {
	return &mealItemRepoPG{pool: pool}
}

func (r *mealItemRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const mealItemCols = `meal_id, item_id, consume_amount, can_change, is_followed, changed_item, is_llm, position`

func (r *mealItemRepoPG) scan(row pgx.Row) (*MealItem, error) {
	var mi MealItem
	err := row.Scan(&mi.MealID, &mi.ItemID, &mi.ConsumeAmount, &mi.CanChange, &mi.IsFollowed, &mi.ChangedItem, &mi.IsLLM, &mi.Position)
	if db.IsNoRows(err) {
		return nil, ErrMealItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &mi, nil
}

func (r *mealItemRepoPG) Create(ctx context.Context, mi *MealItem) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO meal_item (`+mealItemCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		mi.MealID, mi.ItemID, mi.ConsumeAmount, mi.CanChange, mi.IsFollowed, mi.ChangedItem, mi.IsLLM, mi.Position)
	return err
}

func (r *mealItemRepoPG) Get(ctx context.Context, mealID, itemID uuid.UUID) (*MealItem, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `
		SELECT `+mealItemCols+` FROM meal_item WHERE meal_id = $1 AND item_id = $2`, mealID, itemID))
}

func (r *mealItemRepoPG) ListByMeal(ctx context.Context, mealID uuid.UUID) ([]*MealItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+mealItemCols+` FROM meal_item WHERE meal_id = $1 ORDER BY position`, mealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*MealItem
	for rows.Next() {
		mi, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, mi)
	}
	return items, rows.Err()
}

func (r *mealItemRepoPG) UpdateFeedback(ctx context.Context, mi *MealItem) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE meal_item SET is_followed = $3, changed_item = $4, is_llm = $5
		WHERE meal_id = $1 AND item_id = $2`,
		mi.MealID, mi.ItemID, mi.IsFollowed, mi.ChangedItem, mi.IsLLM)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMealItemNotFound
	}
	return nil
}
