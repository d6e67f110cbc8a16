package services

import (
	"errors"
	"log"

	"github.com/conductorhq/conductor/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProjectFinancials is the read-only projection the dashboard consumes.
type ProjectFinancials struct {
	TotalContracted  decimal.Decimal `json:"total_contracted"`
	TotalInvoiced    decimal.Decimal `json:"total_invoiced"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

type FinancialService struct {
	DB *gorm.DB
}

func NewFinancialService(db *gorm.DB) *FinancialService { return &FinancialService{DB: db} }

// ProjectFinancials recomputes the project totals from the current rows on
// every read; soft-deleted contracts and invoices contribute nothing. A
// contract whose total_amount disagrees with the sum of its active tasks is
// logged for manual reconciliation, never auto-corrected.
func (s *FinancialService) ProjectFinancials(projectID string) (*ProjectFinancials, error) {
	var project models.Project
	if err := s.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var contracts []models.Contract
	if err := s.DB.Preload("Tasks").Where("project_id = ?", projectID).Find(&contracts).Error; err != nil {
		return nil, err
	}
	contracted := decimal.Zero
	for _, c := range contracts {
		contracted = contracted.Add(c.TotalAmount)
		taskSum := decimal.Zero
		for _, t := range c.Tasks {
			taskSum = taskSum.Add(t.Amount)
		}
		if !taskSum.Equal(c.TotalAmount) {
			log.Printf("consistency warning: contract %s total_amount=%s disagrees with task sum %s",
				c.ID, c.TotalAmount, taskSum)
		}
	}

	var invoices []models.Invoice
	if err := s.DB.Where("project_id = ?", projectID).Find(&invoices).Error; err != nil {
		return nil, err
	}
	invoiced := decimal.Zero
	paid := decimal.Zero
	for _, inv := range invoices {
		invoiced = invoiced.Add(inv.TotalDue)
		if inv.PaidStatus == models.PaidStatusPaid {
			paid = paid.Add(inv.TotalDue)
		}
	}

	return &ProjectFinancials{
		TotalContracted:  contracted,
		TotalInvoiced:    invoiced,
		TotalPaid:        paid,
		TotalOutstanding: invoiced.Sub(paid),
	}, nil
}
