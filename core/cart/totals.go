package cart

import "github.com/shopspring/decimal"

// TaxRate is applied to the subtotal of every order.
var TaxRate = decimal.RequireFromString("0.20")

type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

func ComputeTotals(items []Item) Totals {
	sub := decimal.Zero
	for _, it := range items {
		sub = sub.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	tax := sub.Mul(TaxRate).Round(2)
	return Totals{
		Subtotal: sub,
		Tax:      tax,
		Total:    sub.Add(tax),
	}
}

// TotalsView is the two-decimal rendering of Totals.
type TotalsView struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

func (t Totals) View() TotalsView {
	return TotalsView{
		Subtotal: t.Subtotal.StringFixed(2),
		Tax:      t.Tax.StringFixed(2),
		Total:    t.Total.StringFixed(2),
	}
}
