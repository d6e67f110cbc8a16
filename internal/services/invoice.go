package services

import (
	"errors"
	"time"

	"github.com/conductorhq/conductor/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceService is the single write path for invoices. All ledger mutation
// happens here, inside one transaction per request.
type InvoiceService struct {
	DB *gorm.DB
}

func NewInvoiceService(db *gorm.DB) *InvoiceService { return &InvoiceService{DB: db} }

// TaskBilling requests a delta percent against one contract task.
type TaskBilling struct {
	TaskID             string          `json:"task_id"`
	PercentThisInvoice decimal.Decimal `json:"percent_this_invoice"`
}

type CreateFromContractInput struct {
	Tasks []TaskBilling
	// InvoiceNumber overrides the derived number when set.
	InvoiceNumber string
	Description   string
}

// lockTasks applies row-level locking where the dialect supports it. SQLite
// has a single writer, so FOR UPDATE is neither supported nor needed there.
func lockTasks(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// CreateFromContract turns a billing request into a persisted invoice:
// snapshot each task's billed-to-date, validate the entire batch against the
// ledger, then create the invoice, its line items, and the ledger updates as
// one atomic unit. Entries requesting 0% are dropped; a negative percent or
// an unknown task rejects the whole request with nothing committed.
func (s *InvoiceService) CreateFromContract(contractID string, in CreateFromContractInput) (*models.Invoice, error) {
	var created models.Invoice
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var contract models.Contract
		if err := tx.First(&contract, "id = ?", contractID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var project models.Project
		if err := tx.First(&project, "id = ?", contract.ProjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var tasks []models.ContractTask
		if err := lockTasks(tx).Where("contract_id = ?", contractID).Order("sort_order").Find(&tasks).Error; err != nil {
			return err
		}
		byID := make(map[string]*models.ContractTask, len(tasks))
		for i := range tasks {
			byID[tasks[i].ID] = &tasks[i]
		}

		type pendingLine struct {
			task            *models.ContractTask
			percent         decimal.Decimal
			previousBilling decimal.Decimal
			amount          decimal.Decimal
		}
		var batch []pendingLine
		for _, tb := range in.Tasks {
			if tb.PercentThisInvoice.IsZero() {
				continue
			}
			if tb.PercentThisInvoice.IsNegative() {
				return validationErr("percent_not_positive", map[string]string{"task_id": tb.TaskID})
			}
			task, ok := byID[tb.TaskID]
			if !ok {
				return ErrNotFound
			}
			// Snapshot billed-to-date before any mutation this round.
			batch = append(batch, pendingLine{task: task, percent: tb.PercentThisInvoice, previousBilling: task.BilledAmount})
		}
		if len(batch) == 0 {
			return validationErr("no_billable_tasks", nil)
		}

		// All-or-nothing: the first over-billed task aborts the transaction
		// with every ledger and invoice row untouched.
		for i := range batch {
			if err := applyBilling(batch[i].task, batch[i].percent); err != nil {
				return err
			}
			batch[i].amount = LineAmount(batch[i].task.Amount, batch[i].percent)
		}

		previousID, err := latestInvoiceID(tx, contractID)
		if err != nil {
			return err
		}
		number := in.InvoiceNumber
		if number == "" {
			if number, err = NextInvoiceNumber(tx, &project); err != nil {
				return err
			}
		}

		inv := models.Invoice{
			ID:                models.NewID("inv-"),
			InvoiceNumber:     number,
			ProjectID:         project.ID,
			ContractID:        contractID,
			PreviousInvoiceID: previousID,
			Type:              models.InvoiceTypeTask,
			Description:       in.Description,
			SentStatus:        models.SentStatusUnsent,
			PaidStatus:        models.PaidStatusUnpaid,
		}
		total := decimal.Zero
		items := make([]models.InvoiceLineItem, 0, len(batch))
		for i, b := range batch {
			items = append(items, models.InvoiceLineItem{
				ID:              models.NewID("li-"),
				InvoiceID:       inv.ID,
				ContractTaskID:  b.task.ID,
				SortOrder:       i + 1,
				Name:            b.task.Name,
				Description:     b.task.Description,
				Quantity:        b.percent,
				UnitPrice:       b.task.Amount,
				Amount:          b.amount,
				PreviousBilling: b.previousBilling,
			})
			total = total.Add(b.amount)
		}
		inv.TotalDue = total

		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		for _, b := range batch {
			res := tx.Model(&models.ContractTask{}).Where("id = ?", b.task.ID).Updates(map[string]any{
				"billed_amount":  b.task.BilledAmount,
				"billed_percent": b.task.BilledPercent,
			})
			if res.Error != nil {
				return res.Error
			}
		}
		if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).Update("current_invoice_id", inv.ID).Error; err != nil {
			return err
		}
		created = inv
		created.LineItems = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateNext builds the successor in the invoice chain: one zero-quantity
// line per task line of the predecessor, with previous_billing read fresh
// from the ledger at call time rather than copied from the old line. The
// predecessor must have been sent.
func (s *InvoiceService) CreateNext(invoiceID string) (*models.Invoice, error) {
	var created models.Invoice
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var prev models.Invoice
		if err := tx.First(&prev, "id = ?", invoiceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if prev.SentStatus != models.SentStatusSent {
			return validationErr("invoice_not_sent", nil)
		}
		var lines []models.InvoiceLineItem
		if err := tx.Where("invoice_id = ?", prev.ID).Order("sort_order").Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return validationErr("no_line_items", nil)
		}
		var project models.Project
		if err := tx.First(&project, "id = ?", prev.ProjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		number, err := NextInvoiceNumber(tx, &project)
		if err != nil {
			return err
		}

		inv := models.Invoice{
			ID:                models.NewID("inv-"),
			InvoiceNumber:     number,
			ProjectID:         prev.ProjectID,
			ContractID:        prev.ContractID,
			PreviousInvoiceID: prev.ID,
			Type:              models.InvoiceTypeTask,
			SentStatus:        models.SentStatusUnsent,
			PaidStatus:        models.PaidStatusUnpaid,
			TotalDue:          decimal.Zero,
		}
		items := make([]models.InvoiceLineItem, 0, len(lines))
		for i, li := range lines {
			previousBilling := NextPreviousBilling(li.PreviousBilling, li.Amount)
			if li.ContractTaskID != "" {
				var task models.ContractTask
				if err := lockTasks(tx).First(&task, "id = ?", li.ContractTaskID).Error; err != nil {
					if !errors.Is(err, gorm.ErrRecordNotFound) {
						return err
					}
					// Task deleted since: fall back to the carried-forward total.
				} else {
					previousBilling = task.BilledAmount
				}
			}
			items = append(items, models.InvoiceLineItem{
				ID:              models.NewID("li-"),
				InvoiceID:       inv.ID,
				ContractTaskID:  li.ContractTaskID,
				SortOrder:       i + 1,
				Name:            li.Name,
				Description:     li.Description,
				Quantity:        decimal.Zero,
				UnitPrice:       li.UnitPrice,
				Amount:          decimal.Zero,
				PreviousBilling: previousBilling,
			})
		}
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Project{}).Where("id = ?", prev.ProjectID).Update("current_invoice_id", inv.ID).Error; err != nil {
			return err
		}
		created = inv
		created.LineItems = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

type ListLineInput struct {
	Name        string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

type CreateListInvoiceInput struct {
	InvoiceNumber string
	Description   string
	TotalDue      decimal.Decimal
	Lines         []ListLineInput
}

// CreateListInvoice adds a standalone free-form invoice to a project: literal
// quantities and rates, no contract or ledger interaction. With no lines the
// caller-supplied total stands as-is.
func (s *InvoiceService) CreateListInvoice(projectID string, in CreateListInvoiceInput) (*models.Invoice, error) {
	var created models.Invoice
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		number := in.InvoiceNumber
		var err error
		if number == "" {
			if number, err = NextInvoiceNumber(tx, &project); err != nil {
				return err
			}
		}
		inv := models.Invoice{
			ID:            models.NewID("inv-"),
			InvoiceNumber: number,
			ProjectID:     projectID,
			Type:          models.InvoiceTypeList,
			Description:   in.Description,
			SentStatus:    models.SentStatusUnsent,
			PaidStatus:    models.PaidStatusUnpaid,
			TotalDue:      in.TotalDue,
		}
		items := make([]models.InvoiceLineItem, 0, len(in.Lines))
		if len(in.Lines) > 0 {
			total := decimal.Zero
			for i, li := range in.Lines {
				amount := li.Quantity.Mul(li.UnitPrice)
				items = append(items, models.InvoiceLineItem{
					ID:          models.NewID("li-"),
					InvoiceID:   inv.ID,
					SortOrder:   i + 1,
					Name:        li.Name,
					Description: li.Description,
					Quantity:    li.Quantity,
					UnitPrice:   li.UnitPrice,
					Amount:      amount,
				})
				total = total.Add(amount)
			}
			inv.TotalDue = total
		}
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		created = inv
		created.LineItems = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

type InvoiceUpdateInput struct {
	SentStatus  *string
	PaidStatus  *string
	Description *string
	TotalDue    *decimal.Decimal
	DataPath    *string
	PdfPath     *string
}

// Update patches invoice status and metadata. Transitions to sent/paid stamp
// sent_at/paid_at. Line items and the ledger are untouched here.
func (s *InvoiceService) Update(invoiceID string, in InvoiceUpdateInput) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.DB.First(&inv, "id = ?", invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	updates := map[string]any{}
	now := time.Now()
	if in.SentStatus != nil {
		if *in.SentStatus != models.SentStatusUnsent && *in.SentStatus != models.SentStatusSent {
			return nil, validationErr("invalid_sent_status", nil)
		}
		updates["sent_status"] = *in.SentStatus
		if *in.SentStatus == models.SentStatusSent && inv.SentAt == nil {
			updates["sent_at"] = now
		}
	}
	if in.PaidStatus != nil {
		switch *in.PaidStatus {
		case models.PaidStatusUnpaid, models.PaidStatusPartial, models.PaidStatusPaid:
		default:
			return nil, validationErr("invalid_paid_status", nil)
		}
		updates["paid_status"] = *in.PaidStatus
		if *in.PaidStatus == models.PaidStatusPaid && inv.PaidAt == nil {
			updates["paid_at"] = now
		}
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.TotalDue != nil {
		updates["total_due"] = *in.TotalDue
	}
	if in.DataPath != nil {
		updates["data_path"] = *in.DataPath
	}
	if in.PdfPath != nil {
		updates["pdf_path"] = *in.PdfPath
	}
	if len(updates) == 0 {
		return s.Get(invoiceID)
	}
	if err := s.DB.Model(&inv).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(invoiceID)
}

// Delete soft-deletes an invoice. The contract-task ledger is deliberately
// left as-is: reversing billed_amount/billed_percent on delete is an open
// product question, so the inconsistency stands rather than being guessed at.
func (s *InvoiceService) Delete(invoiceID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := tx.First(&inv, "id = ?", invoiceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Delete(&inv).Error; err != nil {
			return err
		}
		return tx.Model(&models.Project{}).
			Where("id = ? AND current_invoice_id = ?", inv.ProjectID, inv.ID).
			Update("current_invoice_id", "").Error
	})
}

// Get returns a non-deleted invoice with its line items in order.
func (s *InvoiceService) Get(invoiceID string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.DB.Preload("LineItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order")
	}).First(&inv, "id = ?", invoiceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetByNumber looks an invoice up by its display number.
func (s *InvoiceService) GetByNumber(number string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.DB.Preload("LineItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order")
	}).First(&inv, "invoice_number = ?", number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// latestInvoiceID returns the most recent non-deleted invoice for a contract,
// or "" when the chain is empty.
func latestInvoiceID(tx *gorm.DB, contractID string) (string, error) {
	var prev models.Invoice
	err := tx.Select("id").Where("contract_id = ?", contractID).
		Order("created_at DESC, id DESC").First(&prev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return prev.ID, nil
}
