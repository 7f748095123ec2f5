package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID       int
	Name     string
	Category string
	UnitCost decimal.Decimal
	Price    decimal.Decimal
	Stock    int
	MinStock int
}

// IsLowStock is derived, never persisted.
func (p Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}
