// Package model defines domain entities for the application.
package model

import "github.com/shopspring/decimal"

// CostComponent is a named unit cost in USD.
// Components are static configuration and never mutated after startup.
type CostComponent struct {
	Name     string          `json:"name"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// NewCostComponent builds a component from a decimal string literal.
// It panics on malformed input, so it is only meant for package-level tables.
func NewCostComponent(name, unitCost string) CostComponent {
	return CostComponent{
		Name:     name,
		UnitCost: decimal.RequireFromString(unitCost),
	}
}

// SumUnitCosts adds the unit costs of the given components.
func SumUnitCosts(components []CostComponent) decimal.Decimal {
	total := decimal.Zero
	for _, c := range components {
		total = total.Add(c.UnitCost)
	}
	return total
}
