package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/stockbook/internal/core/domain"
	"github.com/rl1809/stockbook/internal/port"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidInput      = errors.New("invalid input")
)

type ProductInput struct {
	Name     string `validate:"required"`
	Category string
	UnitCost decimal.Decimal
	Price    decimal.Decimal
	Stock    int `validate:"gte=0"`
	MinStock int `validate:"gte=0"`
}

type ProductUpdate struct {
	ID int `validate:"required,gt=0"`
	ProductInput
}

type SaleInput struct {
	ProductID int `validate:"required,gt=0"`
	Quantity  int `validate:"required,gt=0"`
}

type AdjustmentInput struct {
	ProductID int `validate:"required,gt=0"`
	Quantity  int `validate:"required,gt=0"`
	Reason    string
}

// InventoryService runs the business operations against the catalog and the
// ledger, mirroring every mutation into the audit trail. Operations spanning
// several tables are not atomic across them; the catalog write always comes
// first so recovery tooling can reason about which records are missing.
type InventoryService struct {
	catalog  port.CatalogRepository
	ledger   port.LedgerRepository
	audit    *AuditTrail
	validate *validator.Validate
	logger   *logrus.Logger
	now      func() time.Time
}

func NewInventoryService(catalog port.CatalogRepository, ledger port.LedgerRepository, audit *AuditTrail, logger *logrus.Logger) *InventoryService {
	return &InventoryService{
		catalog:  catalog,
		ledger:   ledger,
		audit:    audit,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *InventoryService) AddProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := s.check(in, in.UnitCost, in.Price); err != nil {
		return nil, err
	}

	product := domain.Product{
		Name:     in.Name,
		Category: in.Category,
		UnitCost: in.UnitCost,
		Price:    in.Price,
		Stock:    in.Stock,
		MinStock: in.MinStock,
	}
	if err := s.catalog.Save(ctx, &product); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}

	movement := domain.StockMovement{
		ProductID:   product.ID,
		ProductName: product.Name,
		Action:      domain.MovementNewProduct,
		Quantity:    product.Stock,
		StockBefore: 0,
		StockAfter:  product.Stock,
		Date:        s.now(),
	}
	if err := s.ledger.RecordMovement(ctx, &movement); err != nil {
		return nil, fmt.Errorf("record movement: %w", err)
	}
	if err := s.audit.LogProductAdded(ctx, product); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"product_id": product.ID, "name": product.Name}).Info("product added")
	return &product, nil
}

func (s *InventoryService) UpdateProduct(ctx context.Context, in ProductUpdate) (*domain.Product, error) {
	if err := s.check(in, in.UnitCost, in.Price); err != nil {
		return nil, err
	}

	before, err := s.catalog.GetByID(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if before == nil {
		return nil, ErrProductNotFound
	}

	after := domain.Product{
		ID:       in.ID,
		Name:     in.Name,
		Category: in.Category,
		UnitCost: in.UnitCost,
		Price:    in.Price,
		Stock:    in.Stock,
		MinStock: in.MinStock,
	}
	if err := s.catalog.Save(ctx, &after); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}
	if err := s.audit.LogProductEdited(ctx, *before, after); err != nil {
		return nil, err
	}
	return &after, nil
}

// DeleteProduct is a silent no-op for unknown ids.
func (s *InventoryService) DeleteProduct(ctx context.Context, id int) error {
	product, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	if product == nil {
		return nil
	}
	if err := s.catalog.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if err := s.audit.LogProductDeleted(ctx, *product); err != nil {
		return err
	}
	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}

// Sell rejects quantities above current stock with no mutation to any table.
func (s *InventoryService) Sell(ctx context.Context, in SaleInput) (*domain.Sale, error) {
	if err := s.checkStruct(in); err != nil {
		return nil, err
	}

	product, err := s.catalog.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if in.Quantity > product.Stock {
		return nil, fmt.Errorf("sell %d of %q with stock %d: %w", in.Quantity, product.Name, product.Stock, ErrInsufficientStock)
	}

	stockBefore := product.Stock
	product.Stock -= in.Quantity
	if err := s.catalog.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}

	sale := domain.Sale{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    in.Quantity,
		Price:       product.Price,
		Total:       product.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
		Date:        s.now(),
	}
	if err := s.ledger.RecordSale(ctx, &sale); err != nil {
		return nil, fmt.Errorf("record sale: %w", err)
	}

	movement := domain.StockMovement{
		ProductID:   product.ID,
		ProductName: product.Name,
		Action:      domain.MovementSale,
		Quantity:    in.Quantity,
		StockBefore: stockBefore,
		StockAfter:  product.Stock,
		Date:        sale.Date,
	}
	if err := s.ledger.RecordMovement(ctx, &movement); err != nil {
		return nil, fmt.Errorf("record movement: %w", err)
	}
	if err := s.audit.LogSale(ctx, sale); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": product.ID,
		"quantity":   in.Quantity,
		"total":      sale.Total.String(),
	}).Info("sale recorded")
	return &sale, nil
}

func (s *InventoryService) Restock(ctx context.Context, in AdjustmentInput) (*domain.Product, error) {
	product, err := s.adjustStock(ctx, in, domain.MovementRestock, false)
	if err != nil {
		return nil, err
	}
	if err := s.audit.LogRestock(ctx, *product, in.Quantity); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *InventoryService) SalesReturn(ctx context.Context, in AdjustmentInput) (*domain.Product, error) {
	product, err := s.adjustStock(ctx, in, domain.MovementSalesReturn, true)
	if err != nil {
		return nil, err
	}
	if err := s.audit.LogSalesReturn(ctx, *product, in.Quantity, in.Reason); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *InventoryService) PurchaseReturn(ctx context.Context, in AdjustmentInput) (*domain.Product, error) {
	product, err := s.adjustStock(ctx, in, domain.MovementPurchaseReturn, true)
	if err != nil {
		return nil, err
	}
	if err := s.audit.LogPurchaseReturn(ctx, *product, in.Quantity, in.Reason); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *InventoryService) RecordLoss(ctx context.Context, in AdjustmentInput) (*domain.Product, error) {
	product, err := s.adjustStock(ctx, in, domain.MovementLoss, true)
	if err != nil {
		return nil, err
	}
	if err := s.audit.LogProductLoss(ctx, *product, in.Quantity, in.Reason); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *InventoryService) Products(ctx context.Context) ([]domain.Product, error) {
	return s.catalog.GetAll(ctx)
}

func (s *InventoryService) LowStockProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.catalog.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var low []domain.Product
	for _, p := range products {
		if p.IsLowStock() {
			low = append(low, p)
		}
	}
	return low, nil
}

func (s *InventoryService) Sales(ctx context.Context) ([]domain.Sale, error) {
	return s.ledger.GetAllSales(ctx)
}

func (s *InventoryService) Movements(ctx context.Context) ([]domain.StockMovement, error) {
	return s.ledger.GetAllMovements(ctx)
}

func (s *InventoryService) adjustStock(ctx context.Context, in AdjustmentInput, action domain.MovementAction, reasonRequired bool) (*domain.Product, error) {
	if err := s.checkStruct(in); err != nil {
		return nil, err
	}
	if reasonRequired && in.Reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}

	product, err := s.catalog.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	delta := action.StockDelta(in.Quantity)
	if product.Stock+delta < 0 {
		return nil, fmt.Errorf("%s of %d with stock %d: %w", action, in.Quantity, product.Stock, ErrInsufficientStock)
	}

	stockBefore := product.Stock
	product.Stock += delta
	if err := s.catalog.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}

	movement := domain.StockMovement{
		ProductID:   product.ID,
		ProductName: product.Name,
		Action:      action,
		Quantity:    in.Quantity,
		StockBefore: stockBefore,
		StockAfter:  product.Stock,
		Reason:      in.Reason,
		Date:        s.now(),
	}
	if err := s.ledger.RecordMovement(ctx, &movement); err != nil {
		return nil, fmt.Errorf("record movement: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": product.ID,
		"action":     string(action),
		"quantity":   in.Quantity,
		"stock":      product.Stock,
	}).Info("stock adjusted")
	return product, nil
}

func (s *InventoryService) checkStruct(in any) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func (s *InventoryService) check(in any, amounts ...decimal.Decimal) error {
	if err := s.checkStruct(in); err != nil {
		return err
	}
	for _, d := range amounts {
		if d.IsNegative() {
			return fmt.Errorf("%w: negative amount", ErrInvalidInput)
		}
	}
	return nil
}
