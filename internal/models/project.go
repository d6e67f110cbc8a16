package models

import (
	"time"

	"gorm.io/gorm"
)

// Project is a job; it owns contracts, proposals, and invoices.
type Project struct {
	ID string `gorm:"primaryKey;size:24"`
	// ProjectNumber is assigned sequentially at creation and never changes.
	// Invoice numbers are derived from it.
	ProjectNumber string `gorm:"size:20;not null;uniqueIndex"`
	// JobCode is an optional, editable display code.
	JobCode  string `gorm:"size:40"`
	Name     string `gorm:"not null"`
	ClientID string `gorm:"size:24;index"`
	Client   Client `gorm:"foreignKey:ClientID"`
	// Status is a coarse lifecycle label (proposal, contract, invoiced, paid,
	// complete). Advisory only; never derived from billing state.
	Status   string `gorm:"size:20;not null;default:'proposal'"`
	DataPath string
	Notes    string `gorm:"type:text"`
	// CurrentInvoiceID tracks the invoice the team is actively working.
	CurrentInvoiceID string         `gorm:"size:24"`
	DeletedAt        gorm.DeletedAt `gorm:"index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
