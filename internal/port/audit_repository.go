package port

import (
	"context"

	"github.com/rl1809/stockbook/internal/core/domain"
)

type AuditRepository interface {
	// Append writes one entry, assigning the positional id (pre-append data
	// row count). Entries are immutable once written.
	Append(ctx context.Context, entry *domain.AuditEntry) error

	// GetAll returns entries newest first.
	GetAll(ctx context.Context) ([]domain.AuditEntry, error)
}
