package models

import (
	"time"

	"gorm.io/gorm"
)

// Client entity. Kept minimal: the engine only needs the linkage from
// projects plus contact fields surfaced on read models.
type Client struct {
	ID        string `gorm:"primaryKey;size:24"`
	Name      string `gorm:"not null;index"`
	Email     string `gorm:"index"`
	Company   string
	Phone     string
	Address   string
	Notes     string         `gorm:"type:text"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
