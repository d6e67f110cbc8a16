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

type ProposalHandler struct {
	DB  *gorm.DB
	Svc *services.ProposalService
}

func NewProposalHandler(db *gorm.DB) *ProposalHandler {
	return &ProposalHandler{DB: db, Svc: services.NewProposalService(db)}
}

// Create: POST /proposals
func (h *ProposalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID    string            `json:"project_id"`
		TotalFee     decimal.Decimal   `json:"total_fee"`
		ProposalDate string            `json:"proposal_date"`
		Tasks        []contractTaskReq `json:"tasks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("project_id", req.ProjectID, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	in := services.ProposalCreateInput{
		ProjectID:    req.ProjectID,
		TotalFee:     req.TotalFee,
		ProposalDate: req.ProposalDate,
	}
	for _, t := range req.Tasks {
		in.Tasks = append(in.Tasks, services.ProposalTaskInput{Name: t.Name, Description: t.Description, Amount: t.Amount})
	}
	prop, err := h.Svc.Create(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, prop)
}

// Get: GET /proposals/get?id=...
func (h *ProposalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	prop, err := h.Svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, prop)
}

// Update: POST /proposals/update?id=...
func (h *ProposalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status       *string          `json:"status"`
		TotalFee     *decimal.Decimal `json:"total_fee"`
		ProposalDate *string          `json:"proposal_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	prop, err := h.Svc.Update(id, services.ProposalUpdateInput{
		Status:       req.Status,
		TotalFee:     req.TotalFee,
		ProposalDate: req.ProposalDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, prop)
}

// Delete: POST /proposals/delete?id=...
func (h *ProposalHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// Promote: POST /proposals/promote?id=... — proposal becomes a contract with
// tasks copied 1:1.
func (h *ProposalHandler) Promote(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	contract, err := h.Svc.Promote(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, contract)
}
