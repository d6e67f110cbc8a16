package services

import (
	"errors"
	"time"

	"github.com/conductorhq/conductor/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContractService struct {
	DB *gorm.DB
}

func NewContractService(db *gorm.DB) *ContractService { return &ContractService{DB: db} }

type ContractTaskInput struct {
	Name        string
	Description string
	Amount      decimal.Decimal
}

type ContractCreateInput struct {
	ProjectID   string
	TotalAmount decimal.Decimal
	SignedAt    *time.Time
	FilePath    string
	Notes       string
	Tasks       []ContractTaskInput
}

// Create inserts a contract with its inline tasks. When tasks are given the
// contract total is their sum, overriding any caller-supplied amount.
func (s *ContractService) Create(in ContractCreateInput) (*models.Contract, error) {
	var id string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Select("id").First(&project, "id = ?", in.ProjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		total := in.TotalAmount
		if len(in.Tasks) > 0 {
			total = decimal.Zero
			for _, t := range in.Tasks {
				total = total.Add(t.Amount)
			}
		}
		contract := models.Contract{
			ID:          models.NewID("con-"),
			ProjectID:   in.ProjectID,
			TotalAmount: total,
			SignedAt:    in.SignedAt,
			FilePath:    in.FilePath,
			Notes:       in.Notes,
		}
		if err := tx.Create(&contract).Error; err != nil {
			return err
		}
		for i, t := range in.Tasks {
			task := models.ContractTask{
				ID:          models.NewID("ctask-"),
				ContractID:  contract.ID,
				SortOrder:   i + 1,
				Name:        t.Name,
				Description: t.Description,
				Amount:      t.Amount,
			}
			if err := tx.Create(&task).Error; err != nil {
				return err
			}
		}
		id = contract.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Get returns a non-deleted contract with its tasks in order.
func (s *ContractService) Get(contractID string) (*models.Contract, error) {
	var contract models.Contract
	err := s.DB.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order")
	}).First(&contract, "id = ?", contractID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

type ContractUpdateInput struct {
	SignedAt *time.Time
	FilePath *string
	Notes    *string
}

func (s *ContractService) Update(contractID string, in ContractUpdateInput) (*models.Contract, error) {
	var contract models.Contract
	if err := s.DB.First(&contract, "id = ?", contractID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	updates := map[string]any{}
	if in.SignedAt != nil {
		updates["signed_at"] = *in.SignedAt
	}
	if in.FilePath != nil {
		updates["file_path"] = *in.FilePath
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&contract).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(contractID)
}

func (s *ContractService) Delete(contractID string) error {
	var contract models.Contract
	if err := s.DB.First(&contract, "id = ?", contractID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.DB.Delete(&contract).Error
}

// AddTask appends a task to a contract and recomputes the contract total.
func (s *ContractService) AddTask(contractID string, in ContractTaskInput) (*models.Contract, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var contract models.Contract
		if err := tx.Select("id").First(&contract, "id = ?", contractID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var maxOrder int
		row := tx.Model(&models.ContractTask{}).Where("contract_id = ?", contractID).
			Select("COALESCE(MAX(sort_order), 0)").Row()
		if err := row.Scan(&maxOrder); err != nil {
			return err
		}
		task := models.ContractTask{
			ID:          models.NewID("ctask-"),
			ContractID:  contractID,
			SortOrder:   maxOrder + 1,
			Name:        in.Name,
			Description: in.Description,
			Amount:      in.Amount,
		}
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		return recomputeContractTotal(tx, contractID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(contractID)
}

type ContractTaskUpdateInput struct {
	Name        *string
	Description *string
	Amount      *decimal.Decimal
}

// UpdateTask edits a task. The fee is locked once any invoice line references
// the task: changing it would break the billed_percent arithmetic of the
// whole invoice chain.
func (s *ContractService) UpdateTask(contractID, taskID string, in ContractTaskUpdateInput) (*models.Contract, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var task models.ContractTask
		if err := tx.First(&task, "id = ? AND contract_id = ?", taskID, contractID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		updates := map[string]any{}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Amount != nil && !in.Amount.Equal(task.Amount) {
			var refs int64
			if err := tx.Model(&models.InvoiceLineItem{}).
				Where("contract_task_id = ?", taskID).Count(&refs).Error; err != nil {
				return err
			}
			if refs > 0 {
				return validationErr("task_amount_locked", map[string]string{"task_id": taskID})
			}
			updates["amount"] = *in.Amount
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&task).Updates(updates).Error; err != nil {
			return err
		}
		return recomputeContractTotal(tx, contractID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(contractID)
}

func (s *ContractService) DeleteTask(contractID, taskID string) (*models.Contract, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var task models.ContractTask
		if err := tx.First(&task, "id = ? AND contract_id = ?", taskID, contractID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Delete(&task).Error; err != nil {
			return err
		}
		return recomputeContractTotal(tx, contractID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(contractID)
}

// recomputeContractTotal keeps contracts.total_amount equal to the sum of the
// contract's tasks after task maintenance.
func recomputeContractTotal(tx *gorm.DB, contractID string) error {
	var tasks []models.ContractTask
	if err := tx.Where("contract_id = ?", contractID).Find(&tasks).Error; err != nil {
		return err
	}
	total := decimal.Zero
	for _, t := range tasks {
		total = total.Add(t.Amount)
	}
	return tx.Model(&models.Contract{}).Where("id = ?", contractID).
		Update("total_amount", total).Error
}
