package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/cart"
)

// Units a product can be sold by.
var Units = []string{"lb", "kg", "g", "500g", "piece", "box"}

func ValidUnit(u string) bool {
	for _, v := range Units {
		if v == u {
			return true
		}
	}
	return false
}

type Product struct {
	ID              string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name            string          `gorm:"not null;index" json:"name"`
	Description     string          `json:"description"`
	Origin          string          `gorm:"not null" json:"origin"`
	Unit            string          `gorm:"type:varchar(10);not null" json:"unit"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	DiscountedPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discounted_price"`
	Stock           int             `gorm:"not null;default:0" json:"stock"`
	SoldCount       int             `gorm:"not null;default:0" json:"sold_count"`
	CategoryID      *string         `gorm:"index;type:varchar(64)" json:"category_id"`
	Category        *Category       `json:"category,omitempty"`
	SupplierID      string          `gorm:"index;type:varchar(64)" json:"supplier_id"`
	Images          []ProductImage  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// CategoryKey is the category id, empty for uncategorized products.
func (p Product) CategoryKey() string {
	if p.CategoryID == nil {
		return ""
	}
	return *p.CategoryID
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	// a new product starts at its list price
	if p.DiscountedPrice.IsZero() {
		p.DiscountedPrice = p.Price
	}
	return nil
}

// PrimaryImage returns the URL of the primary image, falling back to the
// first image by sort order.
func (p Product) PrimaryImage() string {
	var first *ProductImage
	for i := range p.Images {
		img := &p.Images[i]
		if img.IsPrimary {
			return img.URL
		}
		if first == nil || img.SortOrder < first.SortOrder {
			first = img
		}
	}
	if first == nil {
		return ""
	}
	return first.URL
}

// CartProduct is the snapshot joined to a cart line.
func (p Product) CartProduct() cart.Product {
	return cart.Product{
		ID:              p.ID,
		Name:            p.Name,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		Unit:            p.Unit,
		Origin:          p.Origin,
		PrimaryImage:    p.PrimaryImage(),
	}
}

type ProductImage struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProductID   string    `gorm:"index;not null;type:varchar(64)" json:"product_id"`
	StoragePath string    `gorm:"not null" json:"storage_path"`
	URL         string    `gorm:"not null" json:"url"`
	IsPrimary   bool      `json:"is_primary"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

func (i *ProductImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
