package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/nutriplan/nutriplan/internal/domain/nutrition"
	"github.com/nutriplan/nutriplan/internal/platform/apperr"
	"github.com/nutriplan/nutriplan/internal/platform/db"
)

// SeedFile is the YAML layout accepted by Import:
//
//	items:
//	  - name: Oatmeal
//	    protein: 13.2
//	    carb: 67.7
//	    fat: 6.5
//	    fiber: 10.1
//	    vitamins: {B1: 0.46}
type SeedFile struct {
	Items []SeedItem `yaml:"items"`
}

type SeedItem struct {
	Name     string                 `yaml:"name"`
	Protein  float64                `yaml:"protein"`
	Carb     float64                `yaml:"carb"`
	Fat      float64                `yaml:"fat"`
	Fiber    float64                `yaml:"fiber"`
	Vitamins map[string]interface{} `yaml:"vitamins"`
	Minerals map[string]interface{} `yaml:"minerals"`
}

// ImportResult counts the outcome of an Import.
type ImportResult struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
}

// ParseSeed decodes a YAML seed file.
func ParseSeed(r io.Reader) (*SeedFile, error) {
	var f SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, apperr.Validation("parse seed file: %v", err)
	}
	return &f, nil
}

// Import adds every seed item that does not exist yet, in one transaction.
// Items already in the catalog are left unchanged.
func (s *Service) Import(ctx context.Context, tx db.Transactor, f *SeedFile) (*ImportResult, error) {
	seen := make(map[string]bool, len(f.Items))
	for i, it := range f.Items {
		if err := ValidateName(it.Name); err != nil {
			return nil, fmt.Errorf("seed item %d: %w", i+1, err)
		}
		if seen[it.Name] {
			return nil, apperr.Validation("seed item %d: duplicate name %q", i+1, it.Name)
		}
		seen[it.Name] = true
	}

	res := &ImportResult{}
	err := tx.WithTx(ctx, func(ctx context.Context) error {
		for _, it := range f.Items {
			vitamins, err := toJSON(it.Vitamins)
			if err != nil {
				return apperr.Validation("item %q vitamins: %v", it.Name, err)
			}
			minerals, err := toJSON(it.Minerals)
			if err != nil {
				return apperr.Validation("item %q minerals: %v", it.Name, err)
			}
			if err := validateMacros(nutrition.Macros{Protein: it.Protein, Carb: it.Carb, Fat: it.Fat, Fiber: it.Fiber}); err != nil {
				return fmt.Errorf("item %q: %w", it.Name, err)
			}

			candidate := &Item{
				Name: it.Name, Protein: it.Protein, Carb: it.Carb, Fat: it.Fat, Fiber: it.Fiber,
				Vitamins: vitamins, Minerals: minerals,
			}
			stored, err := s.items.CreateIfAbsent(ctx, candidate)
			if err != nil {
				return apperr.Persistence("import item", err)
			}
			if stored.ID == candidate.ID {
				res.Created++
			} else {
				res.Existing++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("created", res.Created).Int("existing", res.Existing).Msg("catalog import finished")
	return res, nil
}

func toJSON(m map[string]interface{}) (json.RawMessage, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}
