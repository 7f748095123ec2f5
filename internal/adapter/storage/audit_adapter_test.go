package storage

import (
	"context"
	"testing"
	"time"

	"github.com/rl1809/stockbook/internal/core/domain"
)

func newTestAudit(t *testing.T) *AuditAdapter {
	t.Helper()
	adapter, err := NewAuditAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("NewAuditAdapter failed: %v", err)
	}
	return adapter
}

func TestAuditAppend_PositionalIDs(t *testing.T) {
	adapter := newTestAudit(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		entry := &domain.AuditEntry{
			Timestamp:  time.Date(2026, 2, 1, 12, 0, i, 0, time.UTC),
			Action:     domain.AuditSale,
			Entity:     "Sale",
			EntityID:   i + 1,
			EntityName: "widget",
			Details:    "Qty: 1",
		}
		if err := adapter.Append(ctx, entry); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if entry.ID != i {
			t.Errorf("expected positional id %d, got %d", i, entry.ID)
		}
	}
}

func TestAuditGetAll_NewestFirst(t *testing.T) {
	adapter := newTestAudit(t)
	ctx := context.Background()

	times := []time.Time{
		time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC),
	}
	for i, ts := range times {
		entry := &domain.AuditEntry{
			Timestamp: ts,
			Action:    domain.AuditRestock,
			Entity:    "Product",
			EntityID:  i,
		}
		if err := adapter.Append(ctx, entry); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, err := adapter.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp.After(entries[i-1].Timestamp) {
			t.Errorf("entries not newest first: %v before %v", entries[i-1].Timestamp, entries[i].Timestamp)
		}
	}
	if entries[0].EntityID != 1 {
		t.Errorf("expected the 2026-02-03 entry first, got %+v", entries[0])
	}
}

func TestAuditGetAll_SameTimestampFallsBackToID(t *testing.T) {
	adapter := newTestAudit(t)
	ctx := context.Background()

	ts := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		entry := &domain.AuditEntry{Timestamp: ts, Action: domain.AuditSale, Entity: "Sale"}
		if err := adapter.Append(ctx, entry); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, err := adapter.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if entries[0].ID != 2 || entries[1].ID != 1 || entries[2].ID != 0 {
		t.Errorf("expected id order 2,1,0, got %d,%d,%d", entries[0].ID, entries[1].ID, entries[2].ID)
	}
}

func TestAuditRoundTrip_PreservesAllColumns(t *testing.T) {
	adapter := newTestAudit(t)
	ctx := context.Background()

	entry := &domain.AuditEntry{
		Timestamp:  time.Date(2026, 2, 1, 9, 30, 15, 0, time.UTC),
		Action:     domain.AuditProductEdited,
		Entity:     "Product",
		EntityID:   4,
		EntityName: "gadget",
		Details:    "Name: widget→gadget",
		OldValue:   "Name:widget|Cat:Tools|Price:4.99|Cost:2.5|Stock:10|MinStock:2",
		NewValue:   "Name:gadget|Cat:Tools|Price:4.99|Cost:2.5|Stock:10|MinStock:2",
	}
	if err := adapter.Append(ctx, entry); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	entries, err := adapter.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	got := entries[0]
	if got.Action != entry.Action || got.Entity != entry.Entity || got.EntityID != entry.EntityID {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.Details != entry.Details || got.OldValue != entry.OldValue || got.NewValue != entry.NewValue {
		t.Errorf("diff columns did not survive: %+v", got)
	}
	if !got.Timestamp.Equal(entry.Timestamp) {
		t.Errorf("expected timestamp %v, got %v", entry.Timestamp, got.Timestamp)
	}
}
