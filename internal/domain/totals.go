package domain

import "github.com/shopspring/decimal"

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// ComputeTotals sums line totals and applies the tax percentage when enabled.
// Values are left unrounded; see RoundForDisplay.
func ComputeTotals(items []InvoiceLineItem, taxEnabled bool, taxRate float64) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Total
	}
	var tax float64
	if taxEnabled {
		tax = subtotal * taxRate / 100
	}
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// RoundForDisplay rounds to cents, half away from zero.
func RoundForDisplay(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(2).Float64()
	return rounded
}

// FormatForDisplay renders the value with exactly two decimals.
func FormatForDisplay(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(2)
}

func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: RoundForDisplay(t.Subtotal),
		Tax:      RoundForDisplay(t.Tax),
		Total:    RoundForDisplay(t.Total),
	}
}
