package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/conductorhq/conductor/internal/httpx"
	"github.com/conductorhq/conductor/internal/services"
	"github.com/conductorhq/conductor/internal/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContractHandler struct {
	DB       *gorm.DB
	Svc      *services.ContractService
	Invoices *services.InvoiceService
}

func NewContractHandler(db *gorm.DB) *ContractHandler {
	return &ContractHandler{DB: db, Svc: services.NewContractService(db), Invoices: services.NewInvoiceService(db)}
}

type contractTaskReq struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Create: POST /contracts
func (h *ContractHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID   string            `json:"project_id"`
		TotalAmount decimal.Decimal   `json:"total_amount"`
		SignedAt    string            `json:"signed_at"`
		FilePath    string            `json:"file_path"`
		Notes       string            `json:"notes"`
		Tasks       []contractTaskReq `json:"tasks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("project_id", req.ProjectID, v)
	for _, t := range req.Tasks {
		validation.Required("tasks.name", t.Name, v)
		validation.NonNegative("tasks.amount", t.Amount, v)
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	in := services.ContractCreateInput{
		ProjectID:   req.ProjectID,
		TotalAmount: req.TotalAmount,
		FilePath:    req.FilePath,
		Notes:       req.Notes,
	}
	if req.SignedAt != "" {
		t, err := time.Parse("2006-01-02", req.SignedAt)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_signed_at", nil)
			return
		}
		in.SignedAt = &t
	}
	for _, t := range req.Tasks {
		in.Tasks = append(in.Tasks, services.ContractTaskInput{Name: t.Name, Description: t.Description, Amount: t.Amount})
	}
	contract, err := h.Svc.Create(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, contract)
}

// Get: GET /contracts/get?id=...
func (h *ContractHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	contract, err := h.Svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

// Update: POST /contracts/update?id=...
func (h *ContractHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var req struct {
		SignedAt *string `json:"signed_at"`
		FilePath *string `json:"file_path"`
		Notes    *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	in := services.ContractUpdateInput{FilePath: req.FilePath, Notes: req.Notes}
	if req.SignedAt != nil {
		t, err := time.Parse("2006-01-02", *req.SignedAt)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_signed_at", nil)
			return
		}
		in.SignedAt = &t
	}
	contract, err := h.Svc.Update(id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

// Delete: POST /contracts/delete?id=...
func (h *ContractHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(id); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// AddTask: POST /contracts/tasks?id=...
func (h *ContractHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var req contractTaskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.NonNegative("amount", req.Amount, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	contract, err := h.Svc.AddTask(id, services.ContractTaskInput{Name: req.Name, Description: req.Description, Amount: req.Amount})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

// UpdateTask: POST /contracts/tasks/update?id=...&task_id=...
func (h *ContractHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	taskID := r.URL.Query().Get("task_id")
	if taskID == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_task_id", nil)
		return
	}
	var req struct {
		Name        *string          `json:"name"`
		Description *string          `json:"description"`
		Amount      *decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	contract, err := h.Svc.UpdateTask(id, taskID, services.ContractTaskUpdateInput{
		Name: req.Name, Description: req.Description, Amount: req.Amount,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

// DeleteTask: POST /contracts/tasks/delete?id=...&task_id=...
func (h *ContractHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	taskID := r.URL.Query().Get("task_id")
	if taskID == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_task_id", nil)
		return
	}
	contract, err := h.Svc.DeleteTask(id, taskID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

// CreateInvoice: POST /contracts/invoices?id=... — the billing write path.
func (h *ContractHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var req struct {
		Tasks         []services.TaskBilling `json:"tasks"`
		InvoiceNumber string                 `json:"invoice_number"`
		Description   string                 `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if len(req.Tasks) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"tasks": "required"})
		return
	}
	inv, err := h.Invoices.CreateFromContract(id, services.CreateFromContractInput{
		Tasks:         req.Tasks,
		InvoiceNumber: req.InvoiceNumber,
		Description:   req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}
