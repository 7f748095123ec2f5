package port

import (
	"context"

	"github.com/rl1809/stockbook/internal/core/domain"
)

type CatalogRepository interface {
	// GetAll returns every product in persisted order.
	GetAll(ctx context.Context) ([]domain.Product, error)

	// GetByID returns nil, nil when no product has the given id.
	GetByID(ctx context.Context, id int) (*domain.Product, error)

	// Save appends the product with a freshly allocated id (max+1) when its
	// id is zero or unknown, otherwise rewrites the matching row in place.
	Save(ctx context.Context, product *domain.Product) error

	// Delete removes the matching row; unknown ids are a silent no-op.
	Delete(ctx context.Context, id int) error
}
