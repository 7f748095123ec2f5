package domain

import "time"

// Audit actions mirror the business operations one-to-one.
const (
	AuditProductAdded   = "Product Added"
	AuditProductEdited  = "Product Edited"
	AuditProductDeleted = "Product Deleted"
	AuditSale           = "Sale"
	AuditRestock        = "Restock"
	AuditSalesReturn    = "Sales Return"
	AuditPurchaseReturn = "Purchase Return"
	AuditProductLoss    = "Product Loss"
	AuditManualBackup   = "Manual Backup"
	AuditAutoBackup     = "Auto Backup"
)

// AuditEntry is immutable once written. IDs are positional: an entry's id
// equals the number of data rows that preceded it, so the sequence is a
// dense 0,1,2,... derived from the table itself rather than carried state.
type AuditEntry struct {
	ID         int
	Timestamp  time.Time
	Action     string
	Entity     string
	EntityID   int
	EntityName string
	Details    string
	OldValue   string
	NewValue   string
}
