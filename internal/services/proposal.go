package services

import (
	"errors"
	"time"

	"github.com/conductorhq/conductor/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProposalService struct {
	DB *gorm.DB
}

func NewProposalService(db *gorm.DB) *ProposalService { return &ProposalService{DB: db} }

type ProposalTaskInput struct {
	Name        string
	Description string
	Amount      decimal.Decimal
}

type ProposalCreateInput struct {
	ProjectID    string
	TotalFee     decimal.Decimal
	ProposalDate string
	Tasks        []ProposalTaskInput
}

// Create inserts a draft proposal; with inline tasks the fee is their sum.
func (s *ProposalService) Create(in ProposalCreateInput) (*models.Proposal, error) {
	var id string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Select("id").First(&project, "id = ?", in.ProjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		fee := in.TotalFee
		if len(in.Tasks) > 0 {
			fee = decimal.Zero
			for _, t := range in.Tasks {
				fee = fee.Add(t.Amount)
			}
		}
		prop := models.Proposal{
			ID:           models.NewID("prop-"),
			ProjectID:    in.ProjectID,
			Status:       models.ProposalStatusDraft,
			TotalFee:     fee,
			ProposalDate: in.ProposalDate,
		}
		if err := tx.Create(&prop).Error; err != nil {
			return err
		}
		for i, t := range in.Tasks {
			task := models.ProposalTask{
				ID:          models.NewID("ptask-"),
				ProposalID:  prop.ID,
				SortOrder:   i + 1,
				Name:        t.Name,
				Description: t.Description,
				Amount:      t.Amount,
			}
			if err := tx.Create(&task).Error; err != nil {
				return err
			}
		}
		id = prop.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

func (s *ProposalService) Get(proposalID string) (*models.Proposal, error) {
	var prop models.Proposal
	err := s.DB.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order")
	}).First(&prop, "id = ?", proposalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &prop, nil
}

type ProposalUpdateInput struct {
	Status       *string
	TotalFee     *decimal.Decimal
	ProposalDate *string
}

func (s *ProposalService) Update(proposalID string, in ProposalUpdateInput) (*models.Proposal, error) {
	var prop models.Proposal
	if err := s.DB.First(&prop, "id = ?", proposalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	updates := map[string]any{}
	if in.Status != nil {
		switch *in.Status {
		case models.ProposalStatusDraft, models.ProposalStatusSent, models.ProposalStatusAccepted:
		default:
			return nil, validationErr("invalid_proposal_status", nil)
		}
		updates["status"] = *in.Status
		if *in.Status == models.ProposalStatusSent && prop.SentAt == nil {
			updates["sent_at"] = time.Now()
		}
	}
	if in.TotalFee != nil {
		updates["total_fee"] = *in.TotalFee
	}
	if in.ProposalDate != nil {
		updates["proposal_date"] = *in.ProposalDate
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&prop).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(proposalID)
}

func (s *ProposalService) Delete(proposalID string) error {
	var prop models.Proposal
	if err := s.DB.First(&prop, "id = ?", proposalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.DB.Delete(&prop).Error
}

// Promote turns a proposal into a contract, copying its tasks 1:1 with fresh
// ledgers, and advances the project status. The proposal stays on record.
func (s *ProposalService) Promote(proposalID string) (*models.Contract, error) {
	var contractID string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var prop models.Proposal
		if err := tx.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order")
		}).First(&prop, "id = ?", proposalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		now := time.Now()
		contract := models.Contract{
			ID:          models.NewID("con-"),
			ProjectID:   prop.ProjectID,
			TotalAmount: prop.TotalFee,
			SignedAt:    &now,
		}
		if err := tx.Create(&contract).Error; err != nil {
			return err
		}
		for _, t := range prop.Tasks {
			task := models.ContractTask{
				ID:          models.NewID("ctask-"),
				ContractID:  contract.ID,
				SortOrder:   t.SortOrder,
				Name:        t.Name,
				Description: t.Description,
				Amount:      t.Amount,
			}
			if err := tx.Create(&task).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Proposal{}).Where("id = ?", prop.ID).
			Update("status", models.ProposalStatusAccepted).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Project{}).Where("id = ?", prop.ProjectID).
			Update("status", "contract").Error; err != nil {
			return err
		}
		contractID = contract.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	contracts := NewContractService(s.DB)
	return contracts.Get(contractID)
}
