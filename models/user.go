package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser     UserRole = "user"
	RoleSupplier UserRole = "supplier"
)

// User is a signed-in account. The table keeps the name the mobile app
// knows it by.
type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `gorm:"type:varchar(20);default:'user'" json:"role"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	AvatarURL    string    `json:"avatar_url"`
	Provider     string    `json:"provider"` // "password" or "google"
	Addresses    []Address `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "profiles" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u User) IsSupplier() bool {
	return u.Role == RoleSupplier
}

// Address is a saved delivery address of a user.
type Address struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID        string    `gorm:"index;not null" json:"user_id"`
	RecipientName string    `gorm:"not null" json:"recipient_name"`
	Phone         string    `gorm:"not null" json:"phone"`
	StreetAddress string    `gorm:"not null" json:"street_address"`
	Apartment     string    `json:"apartment,omitempty"`
	City          string    `gorm:"not null" json:"city"`
	State         string    `json:"state"`
	ZipCode       string    `json:"zip_code"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
