package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice belongs to one project and optionally references one contract.
// PreviousInvoiceID is a single-predecessor pointer forming the invoice
// chain for a contract over time. InvoiceNumber is unique among non-deleted
// invoices only; a soft-deleted invoice's number may be handed out again.
type Invoice struct {
	ID                string `gorm:"primaryKey;size:24"`
	InvoiceNumber     string `gorm:"size:40;not null;index"`
	ProjectID         string `gorm:"size:24;not null;index"`
	ContractID        string `gorm:"size:24;index"`
	PreviousInvoiceID string `gorm:"size:24"`
	Type              string `gorm:"size:10;not null;default:'task'"`
	Description       string
	SentStatus        string            `gorm:"size:10;not null;default:'unsent'"`
	PaidStatus        string            `gorm:"size:10;not null;default:'unpaid'"`
	TotalDue          decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	SentAt            *time.Time
	PaidAt            *time.Time
	// DataPath and PdfPath are written by the document/export layer after the
	// engine commits; the engine never touches them.
	DataPath  string
	PdfPath   string
	LineItems []InvoiceLineItem `gorm:"foreignKey:InvoiceID"`
	DeletedAt gorm.DeletedAt    `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvoiceLineItem carries the per-task billing snapshot. For task invoices
// UnitPrice is the task's contracted fee, Quantity is the percent billed on
// this invoice only (a delta, not cumulative), PreviousBilling the dollars
// billed before this invoice, and Amount = UnitPrice * Quantity / 100.
// For list invoices Quantity and UnitPrice are literal units and a rate, and
// PreviousBilling stays zero.
type InvoiceLineItem struct {
	ID              string `gorm:"primaryKey;size:24"`
	InvoiceID       string `gorm:"size:24;not null;index"`
	ContractTaskID  string `gorm:"size:24;index"`
	SortOrder       int    `gorm:"not null;default:0"`
	Name            string `gorm:"not null"`
	Description     string
	Quantity        decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PreviousBilling decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CreatedAt       time.Time
}
