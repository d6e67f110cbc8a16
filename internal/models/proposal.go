package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Proposal precedes a contract. Promoting one creates a contract with the
// proposal's tasks copied 1:1.
type Proposal struct {
	ID           string          `gorm:"primaryKey;size:24"`
	ProjectID    string          `gorm:"size:24;not null;index"`
	Status       string          `gorm:"size:10;not null;default:'draft'"`
	TotalFee     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ProposalDate string          `gorm:"size:10"`
	SentAt       *time.Time
	Tasks        []ProposalTask `gorm:"foreignKey:ProposalID"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ProposalTask struct {
	ID          string `gorm:"primaryKey;size:24"`
	ProposalID  string `gorm:"size:24;not null;index"`
	SortOrder   int    `gorm:"not null;default:0"`
	Name        string `gorm:"not null"`
	Description string
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
