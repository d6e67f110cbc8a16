package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Contract belongs to exactly one project and owns an ordered list of
// fixed-fee tasks. TotalAmount is kept equal to the sum of the task amounts
// by the task-maintenance operations; the aggregator reports a consistency
// warning when the two disagree.
type Contract struct {
	ID          string          `gorm:"primaryKey;size:24"`
	ProjectID   string          `gorm:"size:24;not null;index"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	SignedAt    *time.Time
	FilePath    string
	Notes       string         `gorm:"type:text"`
	Tasks       []ContractTask `gorm:"foreignKey:ContractID"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ContractTask is a fixed-fee line on a signed contract, billed incrementally
// over one or more invoices. BilledAmount and BilledPercent form the ledger:
// cumulative billing to date, kept in lockstep, mutated only by the invoice
// builder inside its transaction. BilledPercent never exceeds 100.
type ContractTask struct {
	ID          string `gorm:"primaryKey;size:24"`
	ContractID  string `gorm:"size:24;not null;index"`
	SortOrder   int    `gorm:"not null;default:0"`
	Name        string `gorm:"not null"`
	Description string
	// Amount is the contracted fee. Immutable once any invoice references
	// the task.
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	BilledAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	BilledPercent decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
