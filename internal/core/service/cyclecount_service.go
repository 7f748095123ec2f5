package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/stockbook/internal/core/domain"
	"github.com/rl1809/stockbook/internal/port"
)

// CycleCountService drives the session lifecycle: snapshot expected
// quantities, accept physical counts, compute variance, close. A count is
// observational: it never touches the catalog; adjusting stock after a count
// is a separate, explicit operation by the operator.
type CycleCountService struct {
	counts  port.CycleCountRepository
	catalog port.CatalogRepository
	logger  *logrus.Logger
	now     func() time.Time
}

func NewCycleCountService(counts port.CycleCountRepository, catalog port.CatalogRepository, logger *logrus.Logger) *CycleCountService {
	return &CycleCountService{counts: counts, catalog: catalog, logger: logger, now: time.Now}
}

// CreateSession snapshots the given products into a new Open session. Each
// item freezes expectedQty and unitCost at creation time, so later catalog
// changes never retroactively alter the variance math. A nil product slice
// seeds the session from the full catalog.
func (s *CycleCountService) CreateSession(ctx context.Context, products []domain.Product, notes string) (int, error) {
	if products == nil {
		var err error
		products, err = s.catalog.GetAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("load catalog: %w", err)
		}
	}

	session := domain.CycleCountSession{
		StartDate: s.now(),
		Status:    domain.SessionOpen,
		Notes:     notes,
	}
	items := make([]domain.CycleCountItem, len(products))
	for i, p := range products {
		items[i] = domain.CycleCountItem{
			ProductID:     p.ID,
			ProductName:   p.Name,
			Category:      p.Category,
			ExpectedQty:   p.Stock,
			CountedQty:    domain.NotCounted,
			UnitCost:      p.UnitCost,
			VarianceValue: decimal.Zero,
		}
	}

	id, err := s.counts.CreateSession(ctx, &session, items)
	if err != nil {
		return 0, fmt.Errorf("create cycle count session: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"session_id": id, "items": len(items)}).Info("cycle count session created")
	return id, nil
}

// SaveItemCount records a physical count for one item, recomputing variance
// and variance value from the stored snapshot. Calling it again for the same
// item overwrites the prior count. Unknown sessions or items surface
// port.ErrNotFound rather than being ignored: silently dropping a count
// would hide data-entry mistakes.
func (s *CycleCountService) SaveItemCount(ctx context.Context, sessionID, productID, countedQty int, notes string) error {
	if countedQty < 0 {
		return fmt.Errorf("%w: counted quantity cannot be negative", ErrInvalidInput)
	}

	items, err := s.counts.GetSessionItems(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session items: %w", err)
	}

	for i := range items {
		if items[i].ProductID != productID {
			continue
		}
		item := items[i]
		item.CountedQty = countedQty
		item.Variance = countedQty - item.ExpectedQty
		item.VarianceValue = item.UnitCost.Mul(decimal.NewFromInt(int64(item.Variance)))
		item.Notes = notes
		item.Counted = true
		if err := s.counts.UpdateItem(ctx, &item); err != nil {
			return fmt.Errorf("save item count: %w", err)
		}
		return nil
	}
	return fmt.Errorf("session %d product %d: %w", sessionID, productID, port.ErrNotFound)
}

// CompleteSession closes the session even when items remain uncounted;
// completion with pending items is a reportable outcome, not an error.
// Completing an already completed session is a no-op.
func (s *CycleCountService) CompleteSession(ctx context.Context, sessionID int) error {
	session, err := s.counts.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("session %d: %w", sessionID, port.ErrNotFound)
	}
	if session.Status == domain.SessionCompleted {
		return nil
	}

	if err := s.counts.CompleteSession(ctx, sessionID, s.now()); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	s.logger.WithField("session_id", sessionID).Info("cycle count session completed")
	return nil
}

func (s *CycleCountService) Sessions(ctx context.Context) ([]domain.CycleCountSession, error) {
	return s.counts.GetAllSessions(ctx)
}

func (s *CycleCountService) SessionItems(ctx context.Context, sessionID int) ([]domain.CycleCountItem, error) {
	return s.counts.GetSessionItems(ctx, sessionID)
}

// SessionSummary sums over the session's items; nothing here is stored.
func (s *CycleCountService) SessionSummary(ctx context.Context, sessionID int) (domain.CycleCountSummary, error) {
	items, err := s.counts.GetSessionItems(ctx, sessionID)
	if err != nil {
		return domain.CycleCountSummary{}, fmt.Errorf("load session items: %w", err)
	}

	summary := domain.CycleCountSummary{
		TotalItems:         len(items),
		TotalVarianceValue: decimal.Zero,
	}
	for _, item := range items {
		if !item.Counted {
			summary.PendingItems++
			continue
		}
		summary.CountedItems++
		if item.Variance != 0 {
			summary.ItemsWithVariance++
		}
		summary.TotalVarianceValue = summary.TotalVarianceValue.Add(item.VarianceValue)
	}
	return summary, nil
}
