package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/conductorhq/conductor/internal/httpx"
	"github.com/conductorhq/conductor/internal/services"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceHandler struct {
	DB  *gorm.DB
	Svc *services.InvoiceService
}

func NewInvoiceHandler(db *gorm.DB) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Svc: services.NewInvoiceService(db)}
}

// Get: GET /invoices/get?id=...
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	inv, err := h.Svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// ByNumber: GET /invoices/by-number?number=... — the frontend looks invoices
// up by display number.
func (h *InvoiceHandler) ByNumber(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("number")
	if number == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_number", nil)
		return
	}
	inv, err := h.Svc.GetByNumber(number)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Update: POST /invoices/update?id=... — status and metadata patch.
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var req struct {
		SentStatus  *string          `json:"sent_status"`
		PaidStatus  *string          `json:"paid_status"`
		Description *string          `json:"description"`
		TotalDue    *decimal.Decimal `json:"total_due"`
		DataPath    *string          `json:"data_path"`
		PdfPath     *string          `json:"pdf_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	inv, err := h.Svc.Update(id, services.InvoiceUpdateInput{
		SentStatus:  req.SentStatus,
		PaidStatus:  req.PaidStatus,
		Description: req.Description,
		TotalDue:    req.TotalDue,
		DataPath:    req.DataPath,
		PdfPath:     req.PdfPath,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Delete: POST /invoices/delete?id=...
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// CreateNext: POST /invoices/create-next?id=... — chain the next invoice off
// a sent one.
func (h *InvoiceHandler) CreateNext(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	inv, err := h.Svc.CreateNext(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}
