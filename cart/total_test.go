package cart_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/freshcatch/seafood-api/cart"
)

func line(id, price, discounted string, qty int) cart.Line {
	return cart.Line{
		ID:       id,
		Quantity: qty,
		Product: cart.Product{
			Price:           decimal.RequireFromString(price),
			DiscountedPrice: decimal.RequireFromString(discounted),
		},
	}
}

func TestTotal(t *testing.T) {
	lines := []cart.Line{
		line("a", "25.99", "25.99", 2),
		line("b", "45.99", "45.99", 1),
		line("c", "24.99", "18.99", 3),
	}

	tests := []struct {
		name     string
		selected map[string]bool
		want     string
	}{
		{"empty selection", cart.SelectionOf(), "0.00"},
		{"nil selection", nil, "0.00"},
		{"all of a and b", cart.SelectionOf("a", "b"), "97.97"},
		{"only b", cart.SelectionOf("b"), "45.99"},
		{"discounted price is charged", cart.SelectionOf("c"), "56.97"},
		{"unknown ids contribute nothing", cart.SelectionOf("zzz", "b"), "45.99"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cart.FormatMoney(cart.Total(lines, tc.selected)))
		})
	}
}

func TestTotalHasNoFloatDrift(t *testing.T) {
	var lines []cart.Line
	ids := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		id := string(rune('A' + i%26)) + string(rune('a'+i/26))
		lines = append(lines, line(id, "0.10", "0.10", 1))
		ids = append(ids, id)
	}
	assert.Equal(t, "10.00", cart.FormatMoney(cart.Total(lines, cart.SelectionOf(ids...))))
}

func TestClampQuantity(t *testing.T) {
	for in, want := range map[int]int{-5: 1, 0: 1, 1: 1, 7: 7} {
		assert.Equal(t, want, cart.ClampQuantity(in), "clamp(%d)", in)
	}
}

func TestProductOnSale(t *testing.T) {
	assert.True(t, line("c", "24.99", "18.99", 1).Product.OnSale())
	assert.False(t, line("a", "25.99", "25.99", 1).Product.OnSale())
}

func TestShippingFee(t *testing.T) {
	s := cart.Shipping{Fee: decimal.RequireFromString("5"), FreeOver: decimal.RequireFromString("100")}

	for in, want := range map[string]string{
		"0":      "0.00",
		"45.99":  "5.00",
		"99.99":  "5.00",
		"100.00": "0.00",
		"250":    "0.00",
	} {
		assert.Equal(t, want, cart.FormatMoney(s.FeeFor(decimal.RequireFromString(in))), "subtotal %s", in)
	}

	flat := cart.Shipping{Fee: decimal.RequireFromString("5")}
	assert.Equal(t, "5.00", cart.FormatMoney(flat.FeeFor(decimal.RequireFromString("1000"))))
}

func TestShippingPrice(t *testing.T) {
	s := cart.Shipping{Fee: decimal.RequireFromString("5"), FreeOver: decimal.RequireFromString("100")}
	lines := []cart.Line{line("a", "25.99", "25.99", 2), line("b", "45.99", "45.99", 1)}

	got := s.Price(lines, cart.SelectionOf("a", "b"))
	assert.Equal(t, "97.97", cart.FormatMoney(got.Subtotal))
	assert.Equal(t, "5.00", cart.FormatMoney(got.ShippingFee))
	assert.Equal(t, "102.97", cart.FormatMoney(got.Total))

	none := s.Price(lines, cart.SelectionOf())
	assert.Equal(t, "0.00", cart.FormatMoney(none.Total))
}
