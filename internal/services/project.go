package services

import (
	"errors"

	"github.com/conductorhq/conductor/internal/models"
	"gorm.io/gorm"
)

type ProjectService struct {
	DB *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService { return &ProjectService{DB: db} }

type ProjectCreateInput struct {
	Name        string
	ClientID    string
	ClientName  string
	ClientEmail string
	JobCode     string
	Status      string
	DataPath    string
	Notes       string
	Tasks       []ContractTaskInput
}

// Create inserts a project with its immutable sequential display number.
// A client is resolved by email or created on the fly when contact info is
// given without an id; inline tasks additionally produce a first contract.
func (s *ProjectService) Create(in ProjectCreateInput) (*models.Project, error) {
	var id string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		clientID := in.ClientID
		if clientID == "" && in.ClientEmail != "" {
			var existing models.Client
			err := tx.First(&existing, "email = ?", in.ClientEmail).Error
			switch {
			case err == nil:
				clientID = existing.ID
			case errors.Is(err, gorm.ErrRecordNotFound) && in.ClientName != "":
				client := models.Client{ID: models.NewID("c-"), Name: in.ClientName, Email: in.ClientEmail}
				if err := tx.Create(&client).Error; err != nil {
					return err
				}
				clientID = client.ID
			case errors.Is(err, gorm.ErrRecordNotFound):
				// No name to create from; leave the project unlinked.
			default:
				return err
			}
		}
		number, err := NextProjectNumber(tx)
		if err != nil {
			return err
		}
		status := in.Status
		if status == "" {
			status = "proposal"
		}
		project := models.Project{
			ID:            models.NewID("proj-"),
			ProjectNumber: number,
			JobCode:       in.JobCode,
			Name:          in.Name,
			ClientID:      clientID,
			Status:        status,
			DataPath:      in.DataPath,
			Notes:         in.Notes,
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		if len(in.Tasks) > 0 {
			total := in.Tasks[0].Amount
			for _, t := range in.Tasks[1:] {
				total = total.Add(t.Amount)
			}
			contract := models.Contract{
				ID:          models.NewID("con-"),
				ProjectID:   project.ID,
				TotalAmount: total,
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
		}
		id = project.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

func (s *ProjectService) Get(projectID string) (*models.Project, error) {
	var project models.Project
	err := s.DB.Preload("Client").First(&project, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *ProjectService) List() ([]models.Project, error) {
	var projects []models.Project
	if err := s.DB.Preload("Client").Order("project_number").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

type ProjectUpdateInput struct {
	Name     *string
	JobCode  *string
	Status   *string
	ClientID *string
	DataPath *string
	Notes    *string
}

// Update patches editable project fields. ProjectNumber is never touched.
func (s *ProjectService) Update(projectID string, in ProjectUpdateInput) (*models.Project, error) {
	var project models.Project
	if err := s.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.JobCode != nil {
		updates["job_code"] = *in.JobCode
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.ClientID != nil {
		updates["client_id"] = *in.ClientID
	}
	if in.DataPath != nil {
		updates["data_path"] = *in.DataPath
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&project).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(projectID)
}

// Delete soft-deletes a project. Children stay put unless cascade is set, in
// which case contracts, invoices, and proposals are soft-deleted with it.
// Either way the project's financial contributions drop out of aggregates.
func (s *ProjectService) Delete(projectID string, cascade bool) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if cascade {
			if err := tx.Where("project_id = ?", projectID).Delete(&models.Contract{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", projectID).Delete(&models.Invoice{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", projectID).Delete(&models.Proposal{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&project).Error
	})
}
