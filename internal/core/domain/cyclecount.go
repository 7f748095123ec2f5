package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	SessionOpen      SessionStatus = "Open"
	SessionCompleted SessionStatus = "Completed"
)

// NotCounted is the stored placeholder for items awaiting a physical count.
// The Counted flag is the authoritative signal; -1 is display convention only.
const NotCounted = -1

type CycleCountSession struct {
	SessionID     int
	StartDate     time.Time
	CompletedDate *time.Time
	Status        SessionStatus
	Notes         string
}

type CycleCountItem struct {
	SessionID     int
	ProductID     int
	ProductName   string
	Category      string
	ExpectedQty   int
	CountedQty    int
	Variance      int
	UnitCost      decimal.Decimal
	VarianceValue decimal.Decimal
	Notes         string
	Counted       bool
}

func (i CycleCountItem) HasVariance() bool {
	return i.Counted && i.Variance != 0
}

func (i CycleCountItem) VarianceStatus() string {
	switch {
	case !i.Counted:
		return "Pending"
	case i.Variance == 0:
		return "OK"
	case i.Variance > 0:
		return "Overage"
	default:
		return "Shortage"
	}
}

// CycleCountSummary is computed from a session's items, never stored.
type CycleCountSummary struct {
	TotalItems         int
	CountedItems       int
	PendingItems       int
	ItemsWithVariance  int
	TotalVarianceValue decimal.Decimal
}
