package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/rl1809/stockbook/internal/core/domain"
)

var productsHeader = []string{"ID", "Name", "Category", "UnitCost", "Price", "Stock", "MinStock"}

// CatalogAdapter persists the product table and owns primary-key allocation.
type CatalogAdapter struct {
	table *Table
}

func NewCatalogAdapter(dataDir string) (*CatalogAdapter, error) {
	t := NewTable(filepath.Join(dataDir, "Products.xlsx"), "Products", productsHeader)
	if err := t.Init(); err != nil {
		return nil, err
	}
	return &CatalogAdapter{table: t}, nil
}

func (a *CatalogAdapter) GetAll(ctx context.Context) ([]domain.Product, error) {
	rows, err := a.table.Load()
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		p, err := parseProduct(row)
		if err != nil {
			return nil, fmt.Errorf("products table: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

func (a *CatalogAdapter) GetByID(ctx context.Context, id int) (*domain.Product, error) {
	products, err := a.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, nil
}

func (a *CatalogAdapter) Save(ctx context.Context, product *domain.Product) error {
	products, err := a.GetAll(ctx)
	if err != nil {
		return err
	}

	replaced := false
	if product.ID != 0 {
		for i := range products {
			if products[i].ID == product.ID {
				products[i] = *product
				replaced = true
				break
			}
		}
	}
	if !replaced {
		product.ID = nextProductID(products)
		products = append(products, *product)
	}

	rows := make([][]string, len(products))
	for i, p := range products {
		rows[i] = formatProduct(p)
	}
	return a.table.Overwrite(rows)
}

func (a *CatalogAdapter) Delete(ctx context.Context, id int) error {
	products, err := a.GetAll(ctx)
	if err != nil {
		return err
	}

	kept := products[:0]
	for _, p := range products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(products) {
		// Unknown id: silent no-op, skip the rewrite entirely.
		return nil
	}

	rows := make([][]string, len(kept))
	for i, p := range kept {
		rows[i] = formatProduct(p)
	}
	return a.table.Overwrite(rows)
}

func nextProductID(products []domain.Product) int {
	next := 1
	for _, p := range products {
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	return next
}

func formatProduct(p domain.Product) []string {
	return []string{
		strconv.Itoa(p.ID),
		p.Name,
		p.Category,
		p.UnitCost.String(),
		p.Price.String(),
		strconv.Itoa(p.Stock),
		strconv.Itoa(p.MinStock),
	}
}

func parseProduct(row []string) (domain.Product, error) {
	var p domain.Product
	var err error
	if p.ID, err = intCell(row, 0); err != nil {
		return p, err
	}
	p.Name = cell(row, 1)
	p.Category = cell(row, 2)
	if p.UnitCost, err = decimalCell(row, 3); err != nil {
		return p, err
	}
	if p.Price, err = decimalCell(row, 4); err != nil {
		return p, err
	}
	if p.Stock, err = intCell(row, 5); err != nil {
		return p, err
	}
	if p.MinStock, err = intCell(row, 6); err != nil {
		return p, err
	}
	return p, nil
}
