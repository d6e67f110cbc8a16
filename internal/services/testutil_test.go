package services

import (
	"fmt"
	"testing"

	"github.com/conductorhq/conductor/internal/db"
	"github.com/conductorhq/conductor/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// unique in-memory DB per test name to avoid leakage via shared cache
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// seedBillingFixture creates one project with a signed contract carrying three
// tasks at 10000, 12000, and 8000.
func seedBillingFixture(t *testing.T, conn *gorm.DB) (models.Project, models.Contract, []models.ContractTask) {
	t.Helper()
	project := models.Project{
		ID:            models.NewID("proj-"),
		ProjectNumber: "P-0001",
		Name:          "HQ Renovation",
		Status:        "contract",
	}
	if err := conn.Create(&project).Error; err != nil {
		t.Fatalf("project: %v", err)
	}
	contract := models.Contract{
		ID:          models.NewID("con-"),
		ProjectID:   project.ID,
		TotalAmount: decimal.NewFromInt(30000),
	}
	if err := conn.Create(&contract).Error; err != nil {
		t.Fatalf("contract: %v", err)
	}
	amounts := []int64{10000, 12000, 8000}
	names := []string{"Schematic Design", "Design Development", "Construction Documents"}
	tasks := make([]models.ContractTask, 0, 3)
	for i := range amounts {
		task := models.ContractTask{
			ID:         models.NewID("ctask-"),
			ContractID: contract.ID,
			SortOrder:  i + 1,
			Name:       names[i],
			Amount:     decimal.NewFromInt(amounts[i]),
		}
		if err := conn.Create(&task).Error; err != nil {
			t.Fatalf("task: %v", err)
		}
		tasks = append(tasks, task)
	}
	return project, contract, tasks
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func wantDecimal(t *testing.T, label, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(mustDecimal(t, want)) {
		t.Fatalf("%s: want %s got %s", label, want, got)
	}
}
