package db

import (
	"fmt"

	"github.com/conductorhq/conductor/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// seed inserts a small development dataset. Idempotent: it keys off the demo
// client's email and does nothing when it already exists.
func seed(db *gorm.DB) {
	var existing models.Client
	if err := db.Where("email = ?", "ops@acme.example").First(&existing).Error; err == nil {
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		client := models.Client{
			ID:      models.NewID("c-"),
			Name:    "Acme Operations",
			Email:   "ops@acme.example",
			Company: "Acme Corp",
		}
		if err := tx.Create(&client).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Unscoped().Model(&models.Project{}).Count(&count).Error; err != nil {
			return err
		}
		project := models.Project{
			ID:            models.NewID("proj-"),
			ProjectNumber: fmt.Sprintf("P-%04d", count+1),
			JobCode:       "ACME-HQ",
			Name:          "Acme HQ Renovation",
			ClientID:      client.ID,
			Status:        "contract",
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		contract := models.Contract{
			ID:          models.NewID("con-"),
			ProjectID:   project.ID,
			TotalAmount: decimal.NewFromInt(30000),
		}
		if err := tx.Create(&contract).Error; err != nil {
			return err
		}
		tasks := []models.ContractTask{
			{ID: models.NewID("ctask-"), ContractID: contract.ID, SortOrder: 1, Name: "Schematic Design", Amount: decimal.NewFromInt(10000)},
			{ID: models.NewID("ctask-"), ContractID: contract.ID, SortOrder: 2, Name: "Design Development", Amount: decimal.NewFromInt(12000)},
			{ID: models.NewID("ctask-"), ContractID: contract.ID, SortOrder: 3, Name: "Construction Documents", Amount: decimal.NewFromInt(8000)},
		}
		return tx.Create(&tasks).Error
	})
	if err != nil {
		fmt.Println("[DB] seed failed:", err)
		return
	}
	fmt.Println("[DB] seeded development data")
}
