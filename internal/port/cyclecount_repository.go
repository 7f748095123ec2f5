package port

import (
	"context"
	"errors"
	"time"

	"github.com/rl1809/stockbook/internal/core/domain"
)

// ErrNotFound is returned by repositories when a referenced row does not
// exist and the operation cannot be treated as a no-op.
var ErrNotFound = errors.New("record not found")

type CycleCountRepository interface {
	// CreateSession writes the session row and all of its item rows in one
	// logical operation and returns the allocated session id (max+1).
	CreateSession(ctx context.Context, session *domain.CycleCountSession, items []domain.CycleCountItem) (int, error)

	// GetAllSessions returns sessions newest first by start date.
	GetAllSessions(ctx context.Context) ([]domain.CycleCountSession, error)

	// GetSession returns nil, nil when the session does not exist.
	GetSession(ctx context.Context, sessionID int) (*domain.CycleCountSession, error)

	GetSessionItems(ctx context.Context, sessionID int) ([]domain.CycleCountItem, error)

	// UpdateItem rewrites the row matching (SessionID, ProductID).
	// Returns ErrNotFound when no such row exists.
	UpdateItem(ctx context.Context, item *domain.CycleCountItem) error

	// CompleteSession marks the session Completed at the given time.
	// Returns ErrNotFound for an unknown session id.
	CompleteSession(ctx context.Context, sessionID int, completedAt time.Time) error
}
