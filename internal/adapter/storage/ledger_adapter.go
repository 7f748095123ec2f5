package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/rl1809/stockbook/internal/core/domain"
)

var (
	salesHeader     = []string{"ID", "ProductId", "ProductName", "Quantity", "Price", "Total", "Date"}
	movementsHeader = []string{"ID", "ProductId", "ProductName", "Action", "Quantity", "StockBefore", "StockAfter", "Reason", "Date"}
)

// LedgerAdapter persists the append-only sales and stock movement tables.
// Ids are allocated per table, not across the whole store.
type LedgerAdapter struct {
	sales     *Table
	movements *Table
}

func NewLedgerAdapter(dataDir string) (*LedgerAdapter, error) {
	sales := NewTable(filepath.Join(dataDir, "Sales.xlsx"), "Sales", salesHeader)
	if err := sales.Init(); err != nil {
		return nil, err
	}
	movements := NewTable(filepath.Join(dataDir, "StockMovements.xlsx"), "StockMovements", movementsHeader)
	if err := movements.Init(); err != nil {
		return nil, err
	}
	return &LedgerAdapter{sales: sales, movements: movements}, nil
}

func (a *LedgerAdapter) RecordSale(ctx context.Context, sale *domain.Sale) error {
	rows, err := a.sales.Load()
	if err != nil {
		return err
	}
	sale.ID, err = nextRowID(rows)
	if err != nil {
		return fmt.Errorf("sales table: %w", err)
	}
	return a.sales.Overwrite(append(rows, formatSale(*sale)))
}

func (a *LedgerAdapter) RecordMovement(ctx context.Context, movement *domain.StockMovement) error {
	rows, err := a.movements.Load()
	if err != nil {
		return err
	}
	movement.ID, err = nextRowID(rows)
	if err != nil {
		return fmt.Errorf("stock movements table: %w", err)
	}
	return a.movements.Overwrite(append(rows, formatMovement(*movement)))
}

func (a *LedgerAdapter) GetAllSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := a.sales.Load()
	if err != nil {
		return nil, err
	}
	sales := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		s, err := parseSale(row)
		if err != nil {
			return nil, fmt.Errorf("sales table: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, nil
}

func (a *LedgerAdapter) GetAllMovements(ctx context.Context) ([]domain.StockMovement, error) {
	rows, err := a.movements.Load()
	if err != nil {
		return nil, err
	}
	movements := make([]domain.StockMovement, 0, len(rows))
	for _, row := range rows {
		m, err := parseMovement(row)
		if err != nil {
			return nil, fmt.Errorf("stock movements table: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, nil
}

// nextRowID returns max(existing ids)+1, or 1 for an empty table.
func nextRowID(rows [][]string) (int, error) {
	next := 1
	for _, row := range rows {
		id, err := intCell(row, 0)
		if err != nil {
			return 0, err
		}
		if id >= next {
			next = id + 1
		}
	}
	return next, nil
}

func formatSale(s domain.Sale) []string {
	return []string{
		strconv.Itoa(s.ID),
		strconv.Itoa(s.ProductID),
		s.ProductName,
		strconv.Itoa(s.Quantity),
		s.Price.String(),
		s.Total.String(),
		s.Date.Format(timeLayout),
	}
}

func parseSale(row []string) (domain.Sale, error) {
	var s domain.Sale
	var err error
	if s.ID, err = intCell(row, 0); err != nil {
		return s, err
	}
	if s.ProductID, err = intCell(row, 1); err != nil {
		return s, err
	}
	s.ProductName = cell(row, 2)
	if s.Quantity, err = intCell(row, 3); err != nil {
		return s, err
	}
	if s.Price, err = decimalCell(row, 4); err != nil {
		return s, err
	}
	if s.Total, err = decimalCell(row, 5); err != nil {
		return s, err
	}
	if s.Date, err = timeCell(row, 6); err != nil {
		return s, err
	}
	return s, nil
}

func formatMovement(m domain.StockMovement) []string {
	return []string{
		strconv.Itoa(m.ID),
		strconv.Itoa(m.ProductID),
		m.ProductName,
		string(m.Action),
		strconv.Itoa(m.Quantity),
		strconv.Itoa(m.StockBefore),
		strconv.Itoa(m.StockAfter),
		m.Reason,
		m.Date.Format(timeLayout),
	}
}

func parseMovement(row []string) (domain.StockMovement, error) {
	var m domain.StockMovement
	var err error
	if m.ID, err = intCell(row, 0); err != nil {
		return m, err
	}
	if m.ProductID, err = intCell(row, 1); err != nil {
		return m, err
	}
	m.ProductName = cell(row, 2)
	m.Action = domain.MovementAction(cell(row, 3))
	if m.Quantity, err = intCell(row, 4); err != nil {
		return m, err
	}
	if m.StockBefore, err = intCell(row, 5); err != nil {
		return m, err
	}
	if m.StockAfter, err = intCell(row, 6); err != nil {
		return m, err
	}
	m.Reason = cell(row, 7)
	if m.Date, err = timeCell(row, 8); err != nil {
		return m, err
	}
	return m, nil
}
