package cart

import "github.com/shopspring/decimal"

// Shipping is the delivery fee charged on a checkout subtotal.
type Shipping struct {
	Fee decimal.Decimal
	// FreeOver waives the fee for subtotals at or above it. Zero never waives.
	FreeOver decimal.Decimal
}

// FeeFor returns the fee for subtotal. Nothing is charged on an empty
// selection.
func (s Shipping) FeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	if s.FreeOver.IsPositive() && subtotal.GreaterThanOrEqual(s.FreeOver) {
		return decimal.Zero
	}
	return s.Fee.Round(2)
}

// Amounts of a priced selection.
type Amounts struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
}

// Price is shared by quotes and checkout so both charge the same.
func (s Shipping) Price(lines []Line, selected map[string]bool) Amounts {
	subtotal := Total(lines, selected)
	fee := s.FeeFor(subtotal)
	return Amounts{Subtotal: subtotal, ShippingFee: fee, Total: subtotal.Add(fee)}
}
