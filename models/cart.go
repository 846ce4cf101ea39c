package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/cart"
)

// CartItem is one line of a user's cart. Product data is joined at read
// time, never copied into the row.
type CartItem struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    string    `gorm:"not null;type:varchar(64);uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID string    `gorm:"not null;type:varchar(64);uniqueIndex:idx_cart_user_product" json:"product_id"`
	Product   Product   `gorm:"constraint:OnDelete:CASCADE" json:"product"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Line converts the row, with its preloaded product, into a cart line.
func (i CartItem) Line() cart.Line {
	return cart.Line{
		ID:        i.ID,
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		Product:   i.Product.CartProduct(),
	}
}
