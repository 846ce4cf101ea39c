package cart

import "github.com/shopspring/decimal"

// Total sums the subtotal of every line whose id is in selected and rounds
// the result to cents. Prices are decimals, so no float error accumulates.
func Total(lines []Line, selected map[string]bool) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if selected[l.ID] {
			total = total.Add(l.Subtotal())
		}
	}
	return total.Round(2)
}

// FormatMoney renders an amount with exactly two decimal digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// SelectionOf returns a selection holding the given ids.
func SelectionOf(ids ...string) map[string]bool {
	sel := make(map[string]bool, len(ids))
	for _, id := range ids {
		sel[id] = true
	}
	return sel
}
