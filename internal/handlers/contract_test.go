package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/conductorhq/conductor/internal/db"
	"github.com/conductorhq/conductor/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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

// seedContractFixtures inserts a project with a contract of two tasks and
// returns their ids.
func seedContractFixtures(t *testing.T, conn *gorm.DB) (projectID, contractID string, taskIDs []string) {
	t.Helper()
	project := models.Project{ID: models.NewID("proj-"), ProjectNumber: "P-0001", Name: "HQ", Status: "contract"}
	if err := conn.Create(&project).Error; err != nil {
		t.Fatalf("project: %v", err)
	}
	contract := models.Contract{ID: models.NewID("con-"), ProjectID: project.ID, TotalAmount: decimal.NewFromInt(22000)}
	if err := conn.Create(&contract).Error; err != nil {
		t.Fatalf("contract: %v", err)
	}
	for i, amt := range []int64{10000, 12000} {
		task := models.ContractTask{
			ID:         models.NewID("ctask-"),
			ContractID: contract.ID,
			SortOrder:  i + 1,
			Name:       fmt.Sprintf("Phase %d", i+1),
			Amount:     decimal.NewFromInt(amt),
		}
		if err := conn.Create(&task).Error; err != nil {
			t.Fatalf("task: %v", err)
		}
		taskIDs = append(taskIDs, task.ID)
	}
	return project.ID, contract.ID, taskIDs
}

func TestContractCreateInvoiceJSONFlow(t *testing.T) {
	conn := setupHandlerTestDB(t)
	_, contractID, taskIDs := seedContractFixtures(t, conn)
	h := NewContractHandler(conn)

	body := fmt.Sprintf(`{"tasks":[{"task_id":%q,"percent_this_invoice":50},{"task_id":%q,"percent_this_invoice":25}]}`,
		taskIDs[0], taskIDs[1])
	req := httptest.NewRequest(http.MethodPost, "/contracts/invoices?id="+contractID, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.CreateInvoice(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var inv models.Invoice
	if err := json.Unmarshal(w.Body.Bytes(), &inv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if inv.InvoiceNumber != "P-0001-1" {
		t.Fatalf("expected P-0001-1 got %s", inv.InvoiceNumber)
	}
	if !inv.TotalDue.Equal(decimal.NewFromInt(8000)) {
		t.Fatalf("expected total 8000 got %s", inv.TotalDue)
	}
	if len(inv.LineItems) != 2 {
		t.Fatalf("expected 2 lines got %d", len(inv.LineItems))
	}
}

func TestContractCreateInvoiceValidation(t *testing.T) {
	conn := setupHandlerTestDB(t)
	_, contractID, taskIDs := seedContractFixtures(t, conn)
	h := NewContractHandler(conn)

	// empty batch is rejected before reaching the engine
	req := httptest.NewRequest(http.MethodPost, "/contracts/invoices?id="+contractID, strings.NewReader(`{"tasks":[]}`))
	w := httptest.NewRecorder()
	h.CreateInvoice(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch got %d", w.Code)
	}

	// over-bill surfaces the engine's validation code
	body := fmt.Sprintf(`{"tasks":[{"task_id":%q,"percent_this_invoice":150}]}`, taskIDs[0])
	req = httptest.NewRequest(http.MethodPost, "/contracts/invoices?id="+contractID, strings.NewReader(body))
	w = httptest.NewRecorder()
	h.CreateInvoice(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for over-bill got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "task_over_billed") {
		t.Fatalf("expected task_over_billed in body=%s", w.Body.String())
	}

	// unknown contract is a 404
	req = httptest.NewRequest(http.MethodPost, "/contracts/invoices?id=con-nope",
		strings.NewReader(fmt.Sprintf(`{"tasks":[{"task_id":%q,"percent_this_invoice":10}]}`, taskIDs[0])))
	w = httptest.NewRecorder()
	h.CreateInvoice(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}

	// missing id query parameter
	req = httptest.NewRequest(http.MethodPost, "/contracts/invoices", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	h.CreateInvoice(w, req)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "missing_id") {
		t.Fatalf("expected missing_id 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestContractTaskEndpoints(t *testing.T) {
	conn := setupHandlerTestDB(t)
	_, contractID, taskIDs := seedContractFixtures(t, conn)
	h := NewContractHandler(conn)

	// add a task
	req := httptest.NewRequest(http.MethodPost, "/contracts/tasks?id="+contractID,
		strings.NewReader(`{"name":"Phase 3","amount":5000}`))
	w := httptest.NewRecorder()
	h.AddTask(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("add expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var contract models.Contract
	if err := json.Unmarshal(w.Body.Bytes(), &contract); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(contract.Tasks) != 3 {
		t.Fatalf("expected 3 tasks got %d", len(contract.Tasks))
	}
	if !contract.TotalAmount.Equal(decimal.NewFromInt(27000)) {
		t.Fatalf("expected total 27000 got %s", contract.TotalAmount)
	}

	// missing task name is a validation failure
	req = httptest.NewRequest(http.MethodPost, "/contracts/tasks?id="+contractID, strings.NewReader(`{"amount":100}`))
	w = httptest.NewRecorder()
	h.AddTask(w, req)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "validation_failed") {
		t.Fatalf("expected validation_failed got %d body=%s", w.Code, w.Body.String())
	}

	// delete one of the originals
	req = httptest.NewRequest(http.MethodPost, "/contracts/tasks/delete?id="+contractID+"&task_id="+taskIDs[1], nil)
	w = httptest.NewRecorder()
	h.DeleteTask(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete expected 200 got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &contract); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !contract.TotalAmount.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("expected total 15000 got %s", contract.TotalAmount)
	}
}
