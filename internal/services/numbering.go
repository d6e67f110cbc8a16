package services

import (
	"fmt"

	"github.com/conductorhq/conductor/internal/models"
	"gorm.io/gorm"
)

// NextProjectNumber returns the next sequential display number ("P-0001",
// "P-0002", ...). Counted over all rows including soft-deleted ones: projects
// are never hard-deleted, so the sequence never reissues a number.
func NextProjectNumber(tx *gorm.DB) (string, error) {
	var count int64
	if err := tx.Unscoped().Model(&models.Project{}).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("P-%04d", count+1), nil
}

// NextInvoiceNumber derives "{project_number}-{n}" where n is one more than
// the count of the project's non-deleted invoices. Uniqueness is scoped to
// active invoices only: soft-deleting an invoice frees its number for reuse.
func NextInvoiceNumber(tx *gorm.DB, project *models.Project) (string, error) {
	var count int64
	if err := tx.Model(&models.Invoice{}).Where("project_id = ?", project.ID).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", project.ProjectNumber, count+1), nil
}
