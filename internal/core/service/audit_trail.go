package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/stockbook/internal/core/domain"
	"github.com/rl1809/stockbook/internal/port"
)

// AuditTrail mirrors every business operation into the audit table. Rows are
// immutable once written; the trail is the system of record for what
// happened and why.
type AuditTrail struct {
	repo   port.AuditRepository
	logger *logrus.Logger
	now    func() time.Time
}

func NewAuditTrail(repo port.AuditRepository, logger *logrus.Logger) *AuditTrail {
	return &AuditTrail{repo: repo, logger: logger, now: time.Now}
}

// Record appends one generic entry.
func (t *AuditTrail) Record(ctx context.Context, action, entity string, entityID int, entityName, details, oldValue, newValue string) error {
	entry := domain.AuditEntry{
		Timestamp:  t.now(),
		Action:     action,
		Entity:     entity,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    details,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if err := t.repo.Append(ctx, &entry); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	t.logger.WithFields(logrus.Fields{
		"action": action,
		"entity": entity,
		"id":     entityID,
	}).Debug("audit entry recorded")
	return nil
}

func (t *AuditTrail) GetAll(ctx context.Context) ([]domain.AuditEntry, error) {
	return t.repo.GetAll(ctx)
}

func (t *AuditTrail) LogProductAdded(ctx context.Context, p domain.Product) error {
	details := fmt.Sprintf("Category: %s, Price: %s, UnitCost: %s, Stock: %d, MinStock: %d",
		p.Category, p.Price.String(), p.UnitCost.String(), p.Stock, p.MinStock)
	return t.Record(ctx, domain.AuditProductAdded, "Product", p.ID, p.Name, details, "", "")
}

func (t *AuditTrail) LogProductEdited(ctx context.Context, before, after domain.Product) error {
	return t.Record(ctx, domain.AuditProductEdited, "Product", after.ID, after.Name,
		ProductDiff(before, after), productSnapshot(before), productSnapshot(after))
}

func (t *AuditTrail) LogProductDeleted(ctx context.Context, p domain.Product) error {
	details := fmt.Sprintf("Category: %s, Last Stock: %d", p.Category, p.Stock)
	return t.Record(ctx, domain.AuditProductDeleted, "Product", p.ID, p.Name, details, "", "")
}

func (t *AuditTrail) LogSale(ctx context.Context, s domain.Sale) error {
	details := fmt.Sprintf("Qty: %d, Price: %s, Total: %s", s.Quantity, s.Price.String(), s.Total.String())
	return t.Record(ctx, domain.AuditSale, "Sale", s.ID, s.ProductName, details, "", "")
}

func (t *AuditTrail) LogRestock(ctx context.Context, p domain.Product, qty int) error {
	return t.Record(ctx, domain.AuditRestock, "Product", p.ID, p.Name,
		fmt.Sprintf("Added: %d", qty),
		fmt.Sprintf("Stock Before: %d", p.Stock-qty),
		fmt.Sprintf("Stock After: %d", p.Stock))
}

func (t *AuditTrail) LogSalesReturn(ctx context.Context, p domain.Product, qty int, reason string) error {
	return t.Record(ctx, domain.AuditSalesReturn, "Product", p.ID, p.Name,
		fmt.Sprintf("Qty: %d, Reason: %s", qty, reason),
		fmt.Sprintf("Stock Before: %d", p.Stock-qty),
		fmt.Sprintf("Stock After: %d", p.Stock))
}

func (t *AuditTrail) LogPurchaseReturn(ctx context.Context, p domain.Product, qty int, reason string) error {
	return t.Record(ctx, domain.AuditPurchaseReturn, "Product", p.ID, p.Name,
		fmt.Sprintf("Qty: %d, Reason: %s", qty, reason),
		fmt.Sprintf("Stock Before: %d", p.Stock+qty),
		fmt.Sprintf("Stock After: %d", p.Stock))
}

func (t *AuditTrail) LogProductLoss(ctx context.Context, p domain.Product, qty int, reason string) error {
	return t.Record(ctx, domain.AuditProductLoss, "Product", p.ID, p.Name,
		fmt.Sprintf("Qty: %d, Reason: %s", qty, reason),
		fmt.Sprintf("Stock Before: %d", p.Stock+qty),
		fmt.Sprintf("Stock After: %d", p.Stock))
}

func (t *AuditTrail) LogManualBackup(ctx context.Context) error {
	return t.Record(ctx, domain.AuditManualBackup, "System", 0, "Backup", "User triggered manual backup", "", "")
}

func (t *AuditTrail) LogAutoBackup(ctx context.Context, archivePath string) error {
	details := fmt.Sprintf("Scheduled backup created: %s", filepath.Base(archivePath))
	return t.Record(ctx, domain.AuditAutoBackup, "System", 0, "Backup", details, "", "")
}

// ProductDiff lists the changed fields as "Field: old→new" joined by commas,
// or "No changes" when the snapshots are equal.
func ProductDiff(before, after domain.Product) string {
	fields := []struct {
		name     string
		old, new string
	}{
		{"Name", before.Name, after.Name},
		{"Category", before.Category, after.Category},
		{"Price", before.Price.String(), after.Price.String()},
		{"UnitCost", before.UnitCost.String(), after.UnitCost.String()},
		{"Stock", fmt.Sprint(before.Stock), fmt.Sprint(after.Stock)},
		{"MinStock", fmt.Sprint(before.MinStock), fmt.Sprint(after.MinStock)},
	}

	var changes []string
	for _, f := range fields {
		if f.old != f.new {
			changes = append(changes, fmt.Sprintf("%s: %s→%s", f.name, f.old, f.new))
		}
	}
	if len(changes) == 0 {
		return "No changes"
	}
	return strings.Join(changes, ", ")
}

func productSnapshot(p domain.Product) string {
	return fmt.Sprintf("Name:%s|Cat:%s|Price:%s|Cost:%s|Stock:%d|MinStock:%d",
		p.Name, p.Category, p.Price.String(), p.UnitCost.String(), p.Stock, p.MinStock)
}
