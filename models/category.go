package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products. A category with a ParentID is a subcategory.
type Category struct {
	ID            string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name          string     `gorm:"uniqueIndex;not null" json:"name"`
	Icon          string     `json:"icon,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	ParentID      *string    `gorm:"index;type:varchar(64)" json:"parent_id,omitempty"`
	Subcategories []Category `gorm:"foreignKey:ParentID" json:"subcategories,omitempty"`
	Products      []Product  `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
