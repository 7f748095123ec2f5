package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rl1809/stockbook/internal/core/domain"
	"github.com/rl1809/stockbook/internal/port"
)

var (
	sessionsHeader = []string{"SessionId", "StartDate", "CompletedDate", "Status", "Notes"}
	itemsHeader    = []string{"SessionId", "ProductId", "ProductName", "Category", "ExpectedQty", "CountedQty", "Variance", "UnitCost", "VarianceValue", "Notes", "Counted"}
)

// CycleCountAdapter persists sessions and their items as two sheets of one
// workbook.
type CycleCountAdapter struct {
	sessions *Table
	items    *Table
}

func NewCycleCountAdapter(dataDir string) (*CycleCountAdapter, error) {
	path := filepath.Join(dataDir, "CycleCounts.xlsx")
	sessions := NewTable(path, "Sessions", sessionsHeader)
	if err := sessions.Init(); err != nil {
		return nil, err
	}
	items := NewTable(path, "Items", itemsHeader)
	if err := items.Init(); err != nil {
		return nil, err
	}
	return &CycleCountAdapter{sessions: sessions, items: items}, nil
}

func (a *CycleCountAdapter) CreateSession(ctx context.Context, session *domain.CycleCountSession, items []domain.CycleCountItem) (int, error) {
	sessionRows, err := a.sessions.Load()
	if err != nil {
		return 0, err
	}
	session.SessionID, err = nextRowID(sessionRows)
	if err != nil {
		return 0, fmt.Errorf("sessions table: %w", err)
	}

	if err := a.sessions.Overwrite(append(sessionRows, formatSession(*session))); err != nil {
		return 0, err
	}

	itemRows, err := a.items.Load()
	if err != nil {
		return 0, err
	}
	for i := range items {
		items[i].SessionID = session.SessionID
		itemRows = append(itemRows, formatItem(items[i]))
	}
	if err := a.items.Overwrite(itemRows); err != nil {
		return 0, err
	}
	return session.SessionID, nil
}

func (a *CycleCountAdapter) GetAllSessions(ctx context.Context) ([]domain.CycleCountSession, error) {
	rows, err := a.sessions.Load()
	if err != nil {
		return nil, err
	}
	sessions := make([]domain.CycleCountSession, 0, len(rows))
	for _, row := range rows {
		s, err := parseSession(row)
		if err != nil {
			return nil, fmt.Errorf("sessions table: %w", err)
		}
		sessions = append(sessions, s)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].StartDate.Equal(sessions[j].StartDate) {
			return sessions[i].SessionID > sessions[j].SessionID
		}
		return sessions[i].StartDate.After(sessions[j].StartDate)
	})
	return sessions, nil
}

func (a *CycleCountAdapter) GetSession(ctx context.Context, sessionID int) (*domain.CycleCountSession, error) {
	sessions, err := a.GetAllSessions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].SessionID == sessionID {
			return &sessions[i], nil
		}
	}
	return nil, nil
}

func (a *CycleCountAdapter) GetSessionItems(ctx context.Context, sessionID int) ([]domain.CycleCountItem, error) {
	rows, err := a.items.Load()
	if err != nil {
		return nil, err
	}
	var items []domain.CycleCountItem
	for _, row := range rows {
		sid, err := intCell(row, 0)
		if err != nil {
			return nil, fmt.Errorf("cycle count items table: %w", err)
		}
		if sid != sessionID {
			continue
		}
		item, err := parseItem(row)
		if err != nil {
			return nil, fmt.Errorf("cycle count items table: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (a *CycleCountAdapter) UpdateItem(ctx context.Context, item *domain.CycleCountItem) error {
	rows, err := a.items.Load()
	if err != nil {
		return err
	}
	for i, row := range rows {
		sid, err := intCell(row, 0)
		if err != nil {
			return fmt.Errorf("cycle count items table: %w", err)
		}
		pid, err := intCell(row, 1)
		if err != nil {
			return fmt.Errorf("cycle count items table: %w", err)
		}
		if sid != item.SessionID || pid != item.ProductID {
			continue
		}
		rows[i] = formatItem(*item)
		return a.items.Overwrite(rows)
	}
	return fmt.Errorf("cycle count item session %d product %d: %w", item.SessionID, item.ProductID, port.ErrNotFound)
}

func (a *CycleCountAdapter) CompleteSession(ctx context.Context, sessionID int, completedAt time.Time) error {
	rows, err := a.sessions.Load()
	if err != nil {
		return err
	}
	for i, row := range rows {
		sid, err := intCell(row, 0)
		if err != nil {
			return fmt.Errorf("sessions table: %w", err)
		}
		if sid != sessionID {
			continue
		}
		session, err := parseSession(row)
		if err != nil {
			return fmt.Errorf("sessions table: %w", err)
		}
		session.CompletedDate = &completedAt
		session.Status = domain.SessionCompleted
		rows[i] = formatSession(session)
		return a.sessions.Overwrite(rows)
	}
	return fmt.Errorf("cycle count session %d: %w", sessionID, port.ErrNotFound)
}

func formatSession(s domain.CycleCountSession) []string {
	completed := ""
	if s.CompletedDate != nil {
		completed = s.CompletedDate.Format(timeLayout)
	}
	return []string{
		strconv.Itoa(s.SessionID),
		s.StartDate.Format(timeLayout),
		completed,
		string(s.Status),
		s.Notes,
	}
}

func parseSession(row []string) (domain.CycleCountSession, error) {
	var s domain.CycleCountSession
	var err error
	if s.SessionID, err = intCell(row, 0); err != nil {
		return s, err
	}
	if s.StartDate, err = timeCell(row, 1); err != nil {
		return s, err
	}
	if cell(row, 2) != "" {
		completed, err := timeCell(row, 2)
		if err != nil {
			return s, err
		}
		s.CompletedDate = &completed
	}
	s.Status = domain.SessionStatus(cell(row, 3))
	if s.Status == "" {
		s.Status = domain.SessionOpen
	}
	s.Notes = cell(row, 4)
	return s, nil
}

func formatItem(i domain.CycleCountItem) []string {
	return []string{
		strconv.Itoa(i.SessionID),
		strconv.Itoa(i.ProductID),
		i.ProductName,
		i.Category,
		strconv.Itoa(i.ExpectedQty),
		strconv.Itoa(i.CountedQty),
		strconv.Itoa(i.Variance),
		i.UnitCost.String(),
		i.VarianceValue.String(),
		i.Notes,
		strconv.FormatBool(i.Counted),
	}
}

func parseItem(row []string) (domain.CycleCountItem, error) {
	var it domain.CycleCountItem
	var err error
	if it.SessionID, err = intCell(row, 0); err != nil {
		return it, err
	}
	if it.ProductID, err = intCell(row, 1); err != nil {
		return it, err
	}
	it.ProductName = cell(row, 2)
	it.Category = cell(row, 3)
	if it.ExpectedQty, err = intCell(row, 4); err != nil {
		return it, err
	}
	if it.CountedQty, err = intCell(row, 5); err != nil {
		return it, err
	}
	if it.Variance, err = intCell(row, 6); err != nil {
		return it, err
	}
	if it.UnitCost, err = decimalCell(row, 7); err != nil {
		return it, err
	}
	if it.VarianceValue, err = decimalCell(row, 8); err != nil {
		return it, err
	}
	it.Notes = cell(row, 9)
	it.Counted = boolCell(row, 10)
	return it, nil
}
