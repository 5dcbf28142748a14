package mealplan

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nutriplan/nutriplan/internal/domain/catalog"
	"github.com/nutriplan/nutriplan/internal/domain/client"
	"github.com/nutriplan/nutriplan/internal/domain/nutrition"
	"github.com/nutriplan/nutriplan/internal/platform/apperr"
	"github.com/nutriplan/nutriplan/internal/platform/auth"
	"github.com/nutriplan/nutriplan/internal/platform/websocket"
)

// ── In-memory store ──

type mealItemKey struct{ meal, item uuid.UUID }

type memStore struct {
	plans     map[uuid.UUID]Plan
	meals     map[uuid.UUID]Meal
	mealItems map[mealItemKey]MealItem
	items     map[uuid.UUID]catalog.Item

	// failMealItem, when set, is consulted before every meal item insert.
	failMealItem func(mi *MealItem) error
}

func newMemStore() *memStore {
	return &memStore{
		plans:     make(map[uuid.UUID]Plan),
		meals:     make(map[uuid.UUID]Meal),
		mealItems: make(map[mealItemKey]MealItem),
		items:     make(map[uuid.UUID]catalog.Item),
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range s.plans {
		c.plans[k] = v
	}
	for k, v := range s.meals {
		c.meals[k] = v
	}
	for k, v := range s.mealItems {
		c.mealItems[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	return c
}

func (s *memStore) restore(from *memStore) {
	s.plans, s.meals, s.mealItems, s.items = from.plans, from.meals, from.mealItems, from.items
}

// snapshotTx rolls the store back when fn fails.
type snapshotTx struct{ s *memStore }

func (t snapshotTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.s.clone()
	if err := fn(ctx); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

// -- PlanRepository --

type memPlanRepo struct{ s *memStore }

func (r memPlanRepo) Create(_ context.Context, p *Plan) error {
	for _, existing := range r.s.plans {
		if existing.ClientID == p.ClientID && existing.PlanDate.Equal(p.PlanDate) {
			return ErrPlanExists
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	r.s.plans[p.ID] = *p
	return nil
}

func (r memPlanRepo) GetByID(_ context.Context, id uuid.UUID) (*Plan, error) {
	p, ok := r.s.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return &p, nil
}

func (r memPlanRepo) GetByClientDate(_ context.Context, clientID uuid.UUID, date time.Time) (*Plan, error) {
	for _, p := range r.s.plans {
		if p.ClientID == clientID && p.PlanDate.Equal(date) {
			return &p, nil
		}
	}
	return nil, ErrPlanNotFound
}

func (r memPlanRepo) DeleteByClientDate(_ context.Context, clientID uuid.UUID, date time.Time) (bool, error) {
	for id, p := range r.s.plans {
		if p.ClientID != clientID || !p.PlanDate.Equal(date) {
			continue
		}
		delete(r.s.plans, id)
		for mid, m := range r.s.meals {
			if m.PlanID != id {
				continue
			}
			delete(r.s.meals, mid)
			for k := range r.s.mealItems {
				if k.meal == mid {
					delete(r.s.mealItems, k)
				}
			}
		}
		return true, nil
	}
	return false, nil
}

func (r memPlanRepo) ListDates(_ context.Context, clientID uuid.UUID) ([]time.Time, error) {
	var dates []time.Time
	for _, p := range r.s.plans {
		if p.ClientID == clientID {
			dates = append(dates, p.PlanDate)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates, nil
}

// -- MealRepository --

type memMealRepo struct{ s *memStore }

func (r memMealRepo) Create(_ context.Context, m *Meal) error {
	m.ID = uuid.New()
	r.s.meals[m.ID] = *m
	return nil
}

func (r memMealRepo) GetByID(_ context.Context, id uuid.UUID) (*Meal, error) {
	m, ok := r.s.meals[id]
	if !ok {
		return nil, ErrMealNotFound
	}
	return &m, nil
}

func (r memMealRepo) ListByPlan(_ context.Context, planID uuid.UUID) ([]*Meal, error) {
	var out []*Meal
	for _, m := range r.s.meals {
		if m.PlanID == planID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.StartTime == nil && b.StartTime != nil:
			return false
		case a.StartTime != nil && b.StartTime == nil:
			return true
		case a.StartTime != nil && *a.StartTime != *b.StartTime:
			return *a.StartTime < *b.StartTime
		}
		return a.Position < b.Position
	})
	return out, nil
}

// -- MealItemRepository --

type memMealItemRepo struct{ s *memStore }

func (r memMealItemRepo) Create(_ context.Context, mi *MealItem) error {
	if r.s.failMealItem != nil {
		if err := r.s.failMealItem(mi); err != nil {
			return err
		}
	}
	k := mealItemKey{mi.MealID, mi.ItemID}
	if _, dup := r.s.mealItems[k]; dup {
		return errors.New("duplicate meal item")
	}
	r.s.mealItems[k] = *mi
	return nil
}

func (r memMealItemRepo) Get(_ context.Context, mealID, itemID uuid.UUID) (*MealItem, error) {
	mi, ok := r.s.mealItems[mealItemKey{mealID, itemID}]
	if !ok {
		return nil, ErrMealItemNotFound
	}
	return &mi, nil
}

func (r memMealItemRepo) ListByMeal(_ context.Context, mealID uuid.UUID) ([]*MealItem, error) {
	var out []*MealItem
	for k, mi := range r.s.mealItems {
		if k.meal == mealID {
			mi := mi
			out = append(out, &mi)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r memMealItemRepo) UpdateFeedback(_ context.Context, mi *MealItem) error {
	k := mealItemKey{mi.MealID, mi.ItemID}
	stored, ok := r.s.mealItems[k]
	if !ok {
		return ErrMealItemNotFound
	}
	stored.IsFollowed, stored.ChangedItem, stored.IsLLM = mi.IsFollowed, mi.ChangedItem, mi.IsLLM
	r.s.mealItems[k] = stored
	return nil
}

// -- catalog.ItemRepository --

type memItemRepo struct{ s *memStore }

func (r memItemRepo) GetByID(_ context.Context, id uuid.UUID) (*catalog.Item, error) {
	it, ok := r.s.items[id]
	if !ok {
		return nil, catalog.ErrItemNotFound
	}
	return &it, nil
}

func (r memItemRepo) GetByName(_ context.Context, name string) (*catalog.Item, error) {
	for _, it := range r.s.items {
		if it.Name == name {
			it := it
			return &it, nil
		}
	}
	return nil, catalog.ErrItemNotFound
}

func (r memItemRepo) CreateIfAbsent(ctx context.Context, it *catalog.Item) (*catalog.Item, error) {
	if existing, err := r.GetByName(ctx, it.Name); err == nil {
		return existing, nil
	}
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	r.s.items[it.ID] = *it
	return it, nil
}

func (r memItemRepo) List(ctx context.Context, limit, offset int) ([]*catalog.Item, int, error) {
	all, _ := r.ListAll(ctx)
	return all, len(all), nil
}

func (r memItemRepo) ListAll(_ context.Context) ([]*catalog.Item, error) {
	var out []*catalog.Item
	for _, it := range r.s.items {
		it := it
		out = append(out, &it)
	}
	return out, nil
}

// -- Clients --

type fakeClients struct {
	data map[uuid.UUID]*client.Client
}

func (f *fakeClients) Get(_ context.Context, id uuid.UUID) (*client.Client, error) {
	if c, ok := f.data[id]; ok {
		return c, nil
	}
	return nil, apperr.NotFound("client")
}

func (f *fakeClients) Authorize(ctx context.Context, caller auth.Identity, clientID uuid.UUID) (*client.Client, error) {
	c, err := f.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if (caller.IsClient() && caller.ID == c.ID) || (caller.IsDietitian() && caller.ID == c.DietitianID) {
		return c, nil
	}
	return nil, apperr.NotFound("client")
}

func (f *fakeClients) AuthorizeOwner(ctx context.Context, caller auth.Identity, clientID uuid.UUID) (*client.Client, error) {
	if !caller.IsDietitian() {
		return nil, apperr.NotFound("client")
	}
	return f.Authorize(ctx, caller, clientID)
}

// -- Events --

type recordingPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e websocket.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

// ── Fixture ──

var testToday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *Service
	store     *memStore
	catalog   *catalog.Service
	clients   *fakeClients
	events    *recordingPublisher
	dietitian uuid.UUID
	clientID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	cat := catalog.NewService(memItemRepo{store}, zerolog.Nop())
	f := &fixture{
		store:     store,
		catalog:   cat,
		clients:   &fakeClients{data: make(map[uuid.UUID]*client.Client)},
		events:    &recordingPublisher{},
		dietitian: uuid.New(),
		clientID:  uuid.New(),
	}
	f.clients.data[f.clientID] = &client.Client{ID: f.clientID, Name: "Jane", Sex: "female", DietitianID: f.dietitian, IsActive: true}

	f.svc = NewService(memPlanRepo{store}, memMealRepo{store}, memMealItemRepo{store}, cat, f.clients, snapshotTx{store}, time.UTC, zerolog.Nop())
	f.svc.now = func() time.Time { return testToday.Add(14 * time.Hour) }
	f.svc.SetEventPublisher(f.events)

	ctx := context.Background()
	seed := map[string]nutrition.Macros{
		"Chicken Breast": {Protein: 31, Carb: 0, Fat: 3.6},
		"Brown Rice":     {Protein: 2.6, Carb: 23, Fat: 0.9, Fiber: 1.8},
		"Oatmeal":        {Protein: 13.2, Carb: 67.7, Fat: 6.5, Fiber: 10.1},
		"Banana":         {Protein: 1.1, Carb: 22.8, Fat: 0.3, Fiber: 2.6},
		"Greek Yogurt":   {Protein: 10, Carb: 3.6, Fat: 0.4},
	}
	for name, m := range seed {
		if _, err := cat.FindOrCreateByName(ctx, name, m); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	return f
}

func (f *fixture) dietitianIdentity() auth.Identity {
	return auth.Identity{Kind: auth.KindDietitian, ID: f.dietitian}
}

func (f *fixture) clientIdentity() auth.Identity {
	return auth.Identity{Kind: auth.KindClient, ID: f.clientID}
}

// standardPlan is breakfast (oatmeal 80g, banana 120g) and lunch (chicken
// 150g, rice 200g) on testToday.
func (f *fixture) standardPlan(t *testing.T) *DailyPlan {
	t.Helper()
	dp, err := f.svc.CreateOrReplacePlan(context.Background(), PlanInput{
		ClientID: f.clientID,
		Date:     "2025-03-10",
		Meals: []MealInput{
			{Title: "Lunch", Time: "12:30-13:30", Items: []ItemInput{
				{Name: "Chicken Breast", Amount: 150},
				{Name: "Brown Rice", Amount: 200, AllowChange: true},
			}},
			{Title: "Breakfast", Time: "08:00 - 09:00", Items: []ItemInput{
				{Name: "Oatmeal", Amount: 80, AllowChange: true},
				{Name: "Banana", Amount: 120},
			}},
		},
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return dp
}

func boolPtr(b bool) *bool { return &b }
