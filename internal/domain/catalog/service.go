package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nutriplan/nutriplan/internal/domain/nutrition"
	"github.com/nutriplan/nutriplan/internal/platform/apperr"
)

type Service struct {
	items  ItemRepository
	logger zerolog.Logger
}

func NewService(items ItemRepository, logger zerolog.Logger) *Service {
	return &Service{items: items, logger: logger.With().Str("component", "catalog").Logger()}
}

// FindByID returns the item or an apperr.ErrNotFound.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.lookup(ctx, "item", func() (*Item, error) { return s.items.GetByID(ctx, id) })
}

// FindByName matches the exact, case-sensitive name.
func (s *Service) FindByName(ctx context.Context, name string) (*Item, error) {
	return s.lookup(ctx, "item", func() (*Item, error) { return s.items.GetByName(ctx, name) })
}

func (s *Service) lookup(ctx context.Context, entity string, get func() (*Item, error)) (*Item, error) {
	item, err := get()
	if errors.Is(err, ErrItemNotFound) {
		return nil, apperr.NotFound(entity)
	}
	if err != nil {
		return nil, apperr.Persistence("get item", err)
	}
	return item, nil
}

// FindOrCreateByName returns the item stored under name, inserting one with
// macros if it does not exist yet. It runs in the transaction carried by ctx,
// if any. Existing items keep their stored macros.
func (s *Service) FindOrCreateByName(ctx context.Context, name string, macros nutrition.Macros) (*Item, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := validateMacros(macros); err != nil {
		return nil, err
	}

	existing, err := s.items.GetByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrItemNotFound) {
		return nil, apperr.Persistence("get item by name", err)
	}

	item, err := s.items.CreateIfAbsent(ctx, &Item{
		Name:    name,
		Protein: macros.Protein,
		Carb:    macros.Carb,
		Fat:     macros.Fat,
		Fiber:   macros.Fiber,
	})
	if err != nil {
		return nil, apperr.Persistence("create item", err)
	}
	s.logger.Debug().Str("item_id", item.ID.String()).Str("item_name", item.Name).Msg("catalog item created")
	return item, nil
}

// ListAll returns every item with its derived per-100g calories.
func (s *Service) ListAll(ctx context.Context) ([]ItemView, error) {
	items, err := s.items.ListAll(ctx)
	if err != nil {
		return nil, apperr.Persistence("list items", err)
	}
	return toViews(items), nil
}

// List returns one page of the catalog ordered by name.
func (s *Service) List(ctx context.Context, limit, offset int) ([]ItemView, int, error) {
	items, total, err := s.items.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Persistence("list items", err)
	}
	return toViews(items), total, nil
}

// Dropdown returns id and name of every item.
func (s *Service) Dropdown(ctx context.Context) ([]DropdownItem, error) {
	items, err := s.items.ListAll(ctx)
	if err != nil {
		return nil, apperr.Persistence("list items", err)
	}
	out := make([]DropdownItem, 0, len(items))
	for _, i := range items {
		out = append(out, DropdownItem{ID: i.ID, Name: i.Name})
	}
	return out, nil
}

func toViews(items []*Item) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, i := range items {
		out = append(out, i.ToView())
	}
	return out
}

// ValidateName rejects blank or over-long item names.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation("item name is required")
	}
	if len(name) > MaxNameLength {
		return apperr.Validation("item name %q exceeds %d characters", name, MaxNameLength)
	}
	return nil
}

func validateMacros(m nutrition.Macros) error {
	if m.Protein < 0 || m.Carb < 0 || m.Fat < 0 || m.Fiber < 0 {
		return apperr.Validation("macros must not be negative")
	}
	return nil
}
