package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementAction string

const (
	MovementNewProduct     MovementAction = "NewProduct"
	MovementSale           MovementAction = "Sale"
	MovementRestock        MovementAction = "Restock"
	MovementSalesReturn    MovementAction = "SalesReturn"
	MovementPurchaseReturn MovementAction = "PurchaseReturn"
	MovementLoss           MovementAction = "Loss"
)

// StockDelta returns the signed effect of qty units under this action.
func (a MovementAction) StockDelta(qty int) int {
	switch a {
	case MovementSale, MovementPurchaseReturn, MovementLoss:
		return -qty
	default:
		return qty
	}
}

type Sale struct {
	ID          int
	ProductID   int
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	Total       decimal.Decimal
	Date        time.Time
}

type StockMovement struct {
	ID          int
	ProductID   int
	ProductName string
	Action      MovementAction
	Quantity    int
	StockBefore int
	StockAfter  int
	Reason      string
	Date        time.Time
}
