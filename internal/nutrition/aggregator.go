package nutrition

import (
	"context"
	"fmt"
	"strings"
)

// Ingredient is the catalog view the aggregator needs: nutrients measured
// per UnitSize of UnitDef.
type Ingredient struct {
	Name     string
	UnitSize float64
	UnitDef  string
	PerUnit  Facts
}

// Lookup resolves ingredients by name. Implementations return an error
// matching ErrNotFound when the name is unknown.
type Lookup interface {
	Lookup(ctx context.Context, name string) (*Ingredient, error)
}

// Portion is a quantity of a named ingredient.
type Portion struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

type Aggregator struct {
	lookup Lookup
}

func NewAggregator(lookup Lookup) *Aggregator {
	return &Aggregator{lookup: lookup}
}

// Scale returns the nutrients for quantity of the named ingredient.
func (a *Aggregator) Scale(ctx context.Context, name string, quantity float64) (Facts, error) {
	ing, err := a.resolve(ctx, name)
	if err != nil {
		return Facts{}, err
	}
	facts, err := Scale(ing.PerUnit, ing.UnitSize, quantity)
	if err != nil {
		return Facts{}, fmt.Errorf("scale %q: %w", ing.Name, err)
	}
	return facts, nil
}

// Total sums the scaled nutrients of every portion. An empty list yields
// zero totals.
func (a *Aggregator) Total(ctx context.Context, portions []Portion) (Facts, error) {
	scaled := make([]Facts, 0, len(portions))
	for _, p := range portions {
		facts, err := a.Scale(ctx, p.Name, p.Quantity)
		if err != nil {
			return Facts{}, err
		}
		scaled = append(scaled, facts)
	}
	return Sum(scaled...), nil
}

func (a *Aggregator) resolve(ctx context.Context, name string) (*Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}
	ing, err := a.lookup.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if ing == nil {
		return nil, ErrNotFound
	}
	return ing, nil
}
