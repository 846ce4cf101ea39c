package cart

import "github.com/shopspring/decimal"

// Product is the snapshot of a product joined to a cart line at read time.
type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	Unit            string          `json:"unit"`
	Origin          string          `json:"origin"`
	PrimaryImage    string          `json:"primary_image,omitempty"`
}

// OnSale reports whether the charged price is below the list price.
func (p Product) OnSale() bool {
	return p.DiscountedPrice.LessThan(p.Price)
}

// Line is one product and quantity in a user's cart.
type Line struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Product   Product `json:"product"`
}

// Subtotal is the discounted price times the quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.DiscountedPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ClampQuantity never lets a quantity below 1 through; removal is RemoveLine.
func ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}
