package port

import (
	"context"

	"github.com/rl1809/stockbook/internal/core/domain"
)

// LedgerRepository is append-only: rows are never mutated or removed.
type LedgerRepository interface {
	// RecordSale assigns the next sale id (max over the sales table + 1)
	// and appends the row.
	RecordSale(ctx context.Context, sale *domain.Sale) error

	// RecordMovement assigns the next movement id and appends the row.
	RecordMovement(ctx context.Context, movement *domain.StockMovement) error

	// GetAllSales returns sales in file order; callers sort and filter.
	GetAllSales(ctx context.Context) ([]domain.Sale, error)

	// GetAllMovements returns movements in file order.
	GetAllMovements(ctx context.Context) ([]domain.StockMovement, error)
}
