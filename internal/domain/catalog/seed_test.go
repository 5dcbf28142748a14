package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nutriplan/nutriplan/internal/domain/nutrition"
	"github.com/nutriplan/nutriplan/internal/platform/apperr"
)

const seedYAML = `
items:
  - name: Oatmeal
    protein: 13.2
    carb: 67.7
    fat: 6.5
    fiber: 10.1
    vitamins:
      B1: 0.46
  - name: Banana
    protein: 1.1
    carb: 22.8
    fat: 0.3
`

func TestParseSeed(t *testing.T) {
	f, err := ParseSeed(strings.NewReader(seedYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(f.Items))
	}
	if f.Items[0].Vitamins["B1"] != 0.46 {
		t.Errorf("expected vitamin B1 0.46, got %v", f.Items[0].Vitamins["B1"])
	}
}

func TestParseSeed_UnknownField(t *testing.T) {
	_, err := ParseSeed(strings.NewReader("items:\n  - name: Egg\n    kcal: 155\n"))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for unknown field, got %v", err)
	}
}

func TestImport_CountsCreatedAndExisting(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	svc.FindOrCreateByName(ctx, "Banana", nutrition.Macros{Protein: 1})

	f, _ := ParseSeed(strings.NewReader(seedYAML))
	res, err := svc.Import(ctx, passthroughTx{}, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Created != 1 || res.Existing != 1 {
		t.Errorf("expected 1 created and 1 existing, got %+v", res)
	}
	if len(repo.data) != 2 {
		t.Errorf("expected 2 stored items, got %d", len(repo.data))
	}
	oat, _ := svc.FindByName(ctx, "Oatmeal")
	if string(oat.Vitamins) != `{"B1":0.46}` {
		t.Errorf("expected vitamins JSON, got %s", oat.Vitamins)
	}
}

func TestImport_RejectsDuplicateNames(t *testing.T) {
	svc, repo := newTestService()
	f := &SeedFile{Items: []SeedItem{{Name: "Egg"}, {Name: "Egg"}}}
	_, err := svc.Import(context.Background(), passthroughTx{}, f)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if len(repo.data) != 0 {
		t.Error("expected nothing to be stored")
	}
}
