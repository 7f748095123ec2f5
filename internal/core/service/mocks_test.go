package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/stockbook/internal/core/domain"
	"github.com/rl1809/stockbook/internal/port"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// memCatalog mimics the workbook adapter: Save allocates max+1 for new rows,
// GetByID hands out copies so callers only persist through Save.
type memCatalog struct {
	products map[int]domain.Product
}

func newMemCatalog() *memCatalog {
	return &memCatalog{products: make(map[int]domain.Product)}
}

func (m *memCatalog) GetAll(ctx context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memCatalog) GetByID(ctx context.Context, id int) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memCatalog) Save(ctx context.Context, p *domain.Product) error {
	if _, ok := m.products[p.ID]; !ok {
		max := 0
		for id := range m.products {
			if id > max {
				max = id
			}
		}
		p.ID = max + 1
	}
	m.products[p.ID] = *p
	return nil
}

func (m *memCatalog) Delete(ctx context.Context, id int) error {
	delete(m.products, id)
	return nil
}

type memLedger struct {
	sales     []domain.Sale
	movements []domain.StockMovement
}

func (m *memLedger) RecordSale(ctx context.Context, s *domain.Sale) error {
	s.ID = len(m.sales) + 1
	m.sales = append(m.sales, *s)
	return nil
}

func (m *memLedger) RecordMovement(ctx context.Context, mv *domain.StockMovement) error {
	mv.ID = len(m.movements) + 1
	m.movements = append(m.movements, *mv)
	return nil
}

func (m *memLedger) GetAllSales(ctx context.Context) ([]domain.Sale, error) {
	return append([]domain.Sale(nil), m.sales...), nil
}

func (m *memLedger) GetAllMovements(ctx context.Context) ([]domain.StockMovement, error) {
	return append([]domain.StockMovement(nil), m.movements...), nil
}

type memAudit struct {
	entries []domain.AuditEntry
}

func (m *memAudit) Append(ctx context.Context, e *domain.AuditEntry) error {
	e.ID = len(m.entries)
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memAudit) GetAll(ctx context.Context) ([]domain.AuditEntry, error) {
	out := make([]domain.AuditEntry, len(m.entries))
	for i := range m.entries {
		out[i] = m.entries[len(m.entries)-1-i]
	}
	return out, nil
}

type memCounts struct {
	sessions map[int]domain.CycleCountSession
	items    []domain.CycleCountItem
}

func newMemCounts() *memCounts {
	return &memCounts{sessions: make(map[int]domain.CycleCountSession)}
}

func (m *memCounts) CreateSession(ctx context.Context, session *domain.CycleCountSession, items []domain.CycleCountItem) (int, error) {
	max := 0
	for id := range m.sessions {
		if id > max {
			max = id
		}
	}
	session.SessionID = max + 1
	m.sessions[session.SessionID] = *session
	for i := range items {
		items[i].SessionID = session.SessionID
		m.items = append(m.items, items[i])
	}
	return session.SessionID, nil
}

func (m *memCounts) GetAllSessions(ctx context.Context) ([]domain.CycleCountSession, error) {
	out := make([]domain.CycleCountSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (m *memCounts) GetSession(ctx context.Context, sessionID int) (*domain.CycleCountSession, error) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memCounts) GetSessionItems(ctx context.Context, sessionID int) ([]domain.CycleCountItem, error) {
	var out []domain.CycleCountItem
	for _, it := range m.items {
		if it.SessionID == sessionID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memCounts) UpdateItem(ctx context.Context, item *domain.CycleCountItem) error {
	for i := range m.items {
		if m.items[i].SessionID == item.SessionID && m.items[i].ProductID == item.ProductID {
			m.items[i] = *item
			return nil
		}
	}
	return fmt.Errorf("item session %d product %d: %w", item.SessionID, item.ProductID, port.ErrNotFound)
}

func (m *memCounts) CompleteSession(ctx context.Context, sessionID int, completedAt time.Time) error {
	s, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %d: %w", sessionID, port.ErrNotFound)
	}
	s.Status = domain.SessionCompleted
	s.CompletedDate = &completedAt
	m.sessions[sessionID] = s
	return nil
}
