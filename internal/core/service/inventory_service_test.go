package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/stockbook/internal/core/domain"
)

var fixedNow = time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)

func newTestInventory() (*InventoryService, *memCatalog, *memLedger, *memAudit) {
	catalog := newMemCatalog()
	ledger := &memLedger{}
	auditRepo := &memAudit{}
	logger := newTestLogger()

	audit := NewAuditTrail(auditRepo, logger)
	audit.now = func() time.Time { return fixedNow }

	svc := NewInventoryService(catalog, ledger, audit, logger)
	svc.now = func() time.Time { return fixedNow }
	return svc, catalog, ledger, auditRepo
}

func seedProduct(t *testing.T, svc *InventoryService, stock int) *domain.Product {
	t.Helper()
	p, err := svc.AddProduct(context.Background(), ProductInput{
		Name:     "widget",
		Category: "Tools",
		UnitCost: decimal.RequireFromString("2.50"),
		Price:    decimal.RequireFromString("4.99"),
		Stock:    stock,
		MinStock: 2,
	})
	if err != nil {
		t.Fatalf("AddProduct failed: %v", err)
	}
	return p
}

func TestAddProduct(t *testing.T) {
	svc, catalog, ledger, audit := newTestInventory()

	p := seedProduct(t, svc, 10)
	if p.ID != 1 {
		t.Errorf("expected id 1, got %d", p.ID)
	}
	if _, ok := catalog.products[1]; !ok {
		t.Error("product not persisted")
	}

	if len(ledger.movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(ledger.movements))
	}
	m := ledger.movements[0]
	if m.Action != domain.MovementNewProduct || m.StockBefore != 0 || m.StockAfter != 10 {
		t.Errorf("unexpected movement: %+v", m)
	}

	if len(audit.entries) != 1 || audit.entries[0].Action != domain.AuditProductAdded {
		t.Errorf("unexpected audit trail: %+v", audit.entries)
	}
}

func TestAddProduct_RejectsInvalidInput(t *testing.T) {
	svc, _, ledger, _ := newTestInventory()

	cases := []ProductInput{
		{Name: "", Stock: 5},
		{Name: "widget", Stock: -1},
		{Name: "widget", Price: decimal.RequireFromString("-1")},
	}
	for _, in := range cases {
		if _, err := svc.AddProduct(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("input %+v: expected ErrInvalidInput, got %v", in, err)
		}
	}
	if len(ledger.movements) != 0 {
		t.Errorf("rejected input still wrote %d movements", len(ledger.movements))
	}
}

func TestSell(t *testing.T) {
	svc, catalog, ledger, audit := newTestInventory()
	p := seedProduct(t, svc, 10)

	sale, err := svc.Sell(context.Background(), SaleInput{ProductID: p.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("Sell failed: %v", err)
	}

	if catalog.products[p.ID].Stock != 7 {
		t.Errorf("expected stock 7, got %d", catalog.products[p.ID].Stock)
	}
	if !sale.Total.Equal(decimal.RequireFromString("14.97")) {
		t.Errorf("expected total 14.97, got %s", sale.Total)
	}
	if !sale.Date.Equal(fixedNow) {
		t.Errorf("expected sale date %v, got %v", fixedNow, sale.Date)
	}

	if len(ledger.sales) != 1 {
		t.Fatalf("expected 1 sale row, got %d", len(ledger.sales))
	}
	m := ledger.movements[len(ledger.movements)-1]
	if m.Action != domain.MovementSale || m.StockBefore != 10 || m.StockAfter != 7 {
		t.Errorf("unexpected movement: %+v", m)
	}

	last := audit.entries[len(audit.entries)-1]
	if last.Action != domain.AuditSale || last.EntityName != "widget" {
		t.Errorf("unexpected audit entry: %+v", last)
	}
}

func TestSell_InsufficientStockMutatesNothing(t *testing.T) {
	svc, catalog, ledger, audit := newTestInventory()
	p := seedProduct(t, svc, 5)

	movementsBefore := len(ledger.movements)
	auditBefore := len(audit.entries)

	_, err := svc.Sell(context.Background(), SaleInput{ProductID: p.ID, Quantity: 6})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if catalog.products[p.ID].Stock != 5 {
		t.Errorf("stock changed on rejected sale: %d", catalog.products[p.ID].Stock)
	}
	if len(ledger.sales) != 0 {
		t.Errorf("rejected sale wrote a sale row")
	}
	if len(ledger.movements) != movementsBefore || len(audit.entries) != auditBefore {
		t.Errorf("rejected sale wrote movement or audit rows")
	}
}

func TestSell_UnknownProduct(t *testing.T) {
	svc, _, _, _ := newTestInventory()
	_, err := svc.Sell(context.Background(), SaleInput{ProductID: 99, Quantity: 1})
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestSell_RejectsZeroQuantity(t *testing.T) {
	svc, _, _, _ := newTestInventory()
	p := seedProduct(t, svc, 5)
	_, err := svc.Sell(context.Background(), SaleInput{ProductID: p.ID, Quantity: 0})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateProduct_AuditsFieldDiff(t *testing.T) {
	svc, _, _, audit := newTestInventory()
	p := seedProduct(t, svc, 10)

	_, err := svc.UpdateProduct(context.Background(), ProductUpdate{
		ID: p.ID,
		ProductInput: ProductInput{
			Name:     "gadget",
			Category: p.Category,
			UnitCost: p.UnitCost,
			Price:    p.Price,
			Stock:    p.Stock,
			MinStock: p.MinStock,
		},
	})
	if err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}

	last := audit.entries[len(audit.entries)-1]
	if last.Action != domain.AuditProductEdited {
		t.Fatalf("expected edit audit entry, got %+v", last)
	}
	if last.Details != "Name: widget→gadget" {
		t.Errorf("expected diff %q, got %q", "Name: widget→gadget", last.Details)
	}
	if last.OldValue == "" || last.NewValue == "" {
		t.Errorf("expected before/after snapshots, got %+v", last)
	}
}

func TestUpdateProduct_UnknownID(t *testing.T) {
	svc, _, _, _ := newTestInventory()
	_, err := svc.UpdateProduct(context.Background(), ProductUpdate{
		ID:           42,
		ProductInput: ProductInput{Name: "ghost"},
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	svc, catalog, _, audit := newTestInventory()
	p := seedProduct(t, svc, 5)

	if err := svc.DeleteProduct(context.Background(), p.ID); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}
	if _, ok := catalog.products[p.ID]; ok {
		t.Error("product still in catalog")
	}
	last := audit.entries[len(audit.entries)-1]
	if last.Action != domain.AuditProductDeleted {
		t.Errorf("expected delete audit entry, got %+v", last)
	}

	// Unknown ids are a silent no-op with no audit row.
	auditBefore := len(audit.entries)
	if err := svc.DeleteProduct(context.Background(), 99); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if len(audit.entries) != auditBefore {
		t.Error("no-op delete wrote an audit row")
	}
}

func TestRestock(t *testing.T) {
	svc, catalog, ledger, audit := newTestInventory()
	p := seedProduct(t, svc, 5)

	got, err := svc.Restock(context.Background(), AdjustmentInput{ProductID: p.ID, Quantity: 4})
	if err != nil {
		t.Fatalf("Restock failed: %v", err)
	}
	if got.Stock != 9 || catalog.products[p.ID].Stock != 9 {
		t.Errorf("expected stock 9, got %d", got.Stock)
	}

	m := ledger.movements[len(ledger.movements)-1]
	if m.Action != domain.MovementRestock || m.StockBefore != 5 || m.StockAfter != 9 {
		t.Errorf("unexpected movement: %+v", m)
	}
	last := audit.entries[len(audit.entries)-1]
	if last.Action != domain.AuditRestock {
		t.Errorf("expected restock audit entry, got %+v", last)
	}
}

func TestRecordLoss_RequiresReason(t *testing.T) {
	svc, catalog, _, _ := newTestInventory()
	p := seedProduct(t, svc, 5)

	_, err := svc.RecordLoss(context.Background(), AdjustmentInput{ProductID: p.ID, Quantity: 2})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if catalog.products[p.ID].Stock != 5 {
		t.Errorf("rejected loss changed stock: %d", catalog.products[p.ID].Stock)
	}

	got, err := svc.RecordLoss(context.Background(), AdjustmentInput{ProductID: p.ID, Quantity: 2, Reason: "water damage"})
	if err != nil {
		t.Fatalf("RecordLoss failed: %v", err)
	}
	if got.Stock != 3 {
		t.Errorf("expected stock 3, got %d", got.Stock)
	}
}

func TestPurchaseReturn_CannotGoNegative(t *testing.T) {
	svc, catalog, _, _ := newTestInventory()
	p := seedProduct(t, svc, 2)

	_, err := svc.PurchaseReturn(context.Background(), AdjustmentInput{ProductID: p.ID, Quantity: 3, Reason: "defective batch"})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if catalog.products[p.ID].Stock != 2 {
		t.Errorf("rejected return changed stock: %d", catalog.products[p.ID].Stock)
	}
}

func TestSalesReturn(t *testing.T) {
	svc, catalog, ledger, _ := newTestInventory()
	p := seedProduct(t, svc, 5)

	got, err := svc.SalesReturn(context.Background(), AdjustmentInput{ProductID: p.ID, Quantity: 2, Reason: "customer return"})
	if err != nil {
		t.Fatalf("SalesReturn failed: %v", err)
	}
	if got.Stock != 7 || catalog.products[p.ID].Stock != 7 {
		t.Errorf("expected stock 7, got %d", got.Stock)
	}
	m := ledger.movements[len(ledger.movements)-1]
	if m.Action != domain.MovementSalesReturn || m.Reason != "customer return" {
		t.Errorf("unexpected movement: %+v", m)
	}
}

func TestLowStockProducts(t *testing.T) {
	svc, _, _, _ := newTestInventory()
	ctx := context.Background()

	seedProduct(t, svc, 10) // min stock 2, fine
	low, err := svc.AddProduct(ctx, ProductInput{
		Name:     "nails",
		UnitCost: decimal.RequireFromString("0.10"),
		Price:    decimal.RequireFromString("0.25"),
		Stock:    1,
		MinStock: 5,
	})
	if err != nil {
		t.Fatalf("AddProduct failed: %v", err)
	}

	got, err := svc.LowStockProducts(ctx)
	if err != nil {
		t.Fatalf("LowStockProducts failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != low.ID {
		t.Errorf("expected only %q low on stock, got %+v", low.Name, got)
	}
}
