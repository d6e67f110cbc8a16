package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/conductorhq/conductor/internal/httpx"
	"github.com/conductorhq/conductor/internal/services"
	"github.com/conductorhq/conductor/internal/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	DB         *gorm.DB
	Svc        *services.ProjectService
	Invoices   *services.InvoiceService
	Financials *services.FinancialService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		DB:         db,
		Svc:        services.NewProjectService(db),
		Invoices:   services.NewInvoiceService(db),
		Financials: services.NewFinancialService(db),
	}
}

// List: GET /projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Svc.List()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": projects, "total": len(projects)})
}

// Create: POST /projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string            `json:"project_name"`
		ClientID    string            `json:"client_id"`
		ClientName  string            `json:"client_name"`
		ClientEmail string            `json:"client_email"`
		JobCode     string            `json:"job_code"`
		Status      string            `json:"status"`
		DataPath    string            `json:"data_path"`
		Notes       string            `json:"notes"`
		Tasks       []contractTaskReq `json:"tasks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("project_name", req.Name, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	in := services.ProjectCreateInput{
		Name:        req.Name,
		ClientID:    req.ClientID,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		JobCode:     req.JobCode,
		Status:      req.Status,
		DataPath:    req.DataPath,
		Notes:       req.Notes,
	}
	for _, t := range req.Tasks {
		in.Tasks = append(in.Tasks, services.ContractTaskInput{Name: t.Name, Description: t.Description, Amount: t.Amount})
	}
	project, err := h.Svc.Create(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

// Get: GET /projects/get?id=...
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	project, err := h.Svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

// Update: POST /projects/update?id=...
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name     *string `json:"project_name"`
		JobCode  *string `json:"job_code"`
		Status   *string `json:"status"`
		ClientID *string `json:"client_id"`
		DataPath *string `json:"data_path"`
		Notes    *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	project, err := h.Svc.Update(id, services.ProjectUpdateInput{
		Name:     req.Name,
		JobCode:  req.JobCode,
		Status:   req.Status,
		ClientID: req.ClientID,
		DataPath: req.DataPath,
		Notes:    req.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

// Delete: POST /projects/delete?id=...&cascade=1
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	cascade := r.URL.Query().Get("cascade") == "1" || r.URL.Query().Get("cascade") == "true"
	if err := h.Svc.Delete(id, cascade); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetFinancials: GET /projects/financials?id=...
func (h *ProjectHandler) GetFinancials(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	fin, err := h.Financials.ProjectFinancials(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, fin)
}

// CreateListInvoice: POST /projects/invoices?id=... — standalone non-contract
// invoice.
func (h *ProjectHandler) CreateListInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var req struct {
		InvoiceNumber string          `json:"invoice_number"`
		Description   string          `json:"description"`
		TotalDue      decimal.Decimal `json:"total_due"`
		Lines         []struct {
			Name        string          `json:"name"`
			Description string          `json:"description"`
			Quantity    decimal.Decimal `json:"quantity"`
			UnitPrice   decimal.Decimal `json:"unit_price"`
		} `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	in := services.CreateListInvoiceInput{
		InvoiceNumber: req.InvoiceNumber,
		Description:   req.Description,
		TotalDue:      req.TotalDue,
	}
	for _, li := range req.Lines {
		in.Lines = append(in.Lines, services.ListLineInput{
			Name:        li.Name,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
		})
	}
	inv, err := h.Invoices.CreateListInvoice(id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}
