package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rl1809/stockbook/internal/core/domain"
)

var auditHeader = []string{"ID", "Timestamp", "Action", "Entity", "EntityId", "EntityName", "Details", "OldValue", "NewValue"}

// AuditAdapter persists the append-only audit trail. Ids are positional:
// each entry's id equals the data-row count before the append, so the
// sequence is a dense 0,1,2,... carried by the table itself.
type AuditAdapter struct {
	table *Table
}

func NewAuditAdapter(dataDir string) (*AuditAdapter, error) {
	t := NewTable(filepath.Join(dataDir, "AuditTrail.xlsx"), "AuditTrail", auditHeader)
	if err := t.Init(); err != nil {
		return nil, err
	}
	return &AuditAdapter{table: t}, nil
}

func (a *AuditAdapter) Append(ctx context.Context, entry *domain.AuditEntry) error {
	rows, err := a.table.Load()
	if err != nil {
		return err
	}
	entry.ID = len(rows)
	return a.table.Overwrite(append(rows, formatAuditEntry(*entry)))
}

// GetAll returns entries newest first. Audit review is recency-biased, so
// this is the one read path that imposes an order.
func (a *AuditAdapter) GetAll(ctx context.Context) ([]domain.AuditEntry, error) {
	rows, err := a.table.Load()
	if err != nil {
		return nil, err
	}
	entries := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		e, err := parseAuditEntry(row)
		if err != nil {
			return nil, fmt.Errorf("audit trail table: %w", err)
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func formatAuditEntry(e domain.AuditEntry) []string {
	return []string{
		strconv.Itoa(e.ID),
		e.Timestamp.Format(timeLayout),
		e.Action,
		e.Entity,
		strconv.Itoa(e.EntityID),
		e.EntityName,
		e.Details,
		e.OldValue,
		e.NewValue,
	}
}

func parseAuditEntry(row []string) (domain.AuditEntry, error) {
	var e domain.AuditEntry
	var err error
	if e.ID, err = intCell(row, 0); err != nil {
		return e, err
	}
	if e.Timestamp, err = timeCell(row, 1); err != nil {
		return e, err
	}
	e.Action = cell(row, 2)
	e.Entity = cell(row, 3)
	if e.EntityID, err = intCell(row, 4); err != nil {
		return e, err
	}
	e.EntityName = cell(row, 5)
	e.Details = cell(row, 6)
	e.OldValue = cell(row, 7)
	e.NewValue = cell(row, 8)
	return e, nil
}
