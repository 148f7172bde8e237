package order

import (
	"github.com/noah-isme/backend-lims/internal/money"
)

// BillableItems returns the items charged to the client: every analysis that
// is not in the not_requested state.
func BillableItems(o Order) []LineItem {
	items := make([]LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		if it.State.Billable() {
			items = append(items, it)
		}
	}
	return items
}

// Subtotal sums the unit prices of the billable items.
func Subtotal(o Order) money.Money {
	subtotal := money.Zero
	for _, it := range BillableItems(o) {
		subtotal = subtotal.Add(it.Service.UnitPrice())
	}
	return subtotal
}

// Total sums price * (1 + VAT) per billable item. An item without a service
// makes the whole order total zero.
func Total(o Order) money.Money {
	total, _ := total(o)
	return total
}

func total(o Order) (money.Money, bool) {
	sum := money.Zero
	for _, it := range BillableItems(o) {
		if it.Service == nil {
			return money.Zero, false
		}
		sum = sum.Add(it.Service.UnitPrice().ApplyRate(it.Service.VATRate()))
	}
	return sum, true
}

// VAT is Total minus Subtotal.
func VAT(o Order) money.Money {
	return Total(o).Sub(Subtotal(o))
}

// DiscountSettings provides the facility-wide member discount.
type DiscountSettings interface {
	MemberDiscountRate() money.Percent
}

// StaticDiscount is a fixed DiscountSettings.
type StaticDiscount money.Percent

// MemberDiscountRate implements DiscountSettings.
func (s StaticDiscount) MemberDiscountRate() money.Percent { return money.Percent(s) }

// MemberDiscount returns the configured rate when the order qualifies, 0.00 otherwise.
func MemberDiscount(o Order, settings DiscountSettings) money.Percent {
	if !o.MemberDiscountApplies || settings == nil {
		return money.ZeroPercent
	}
	return settings.MemberDiscountRate()
}

// Summary bundles the billing figures of an order.
type Summary struct {
	OrderID        string        `json:"order_id"`
	BillableItems  int           `json:"billable_items"`
	Subtotal       money.Money   `json:"subtotal"`
	VAT            money.Money   `json:"vat"`
	Total          money.Money   `json:"total"`
	MemberDiscount money.Percent `json:"member_discount"`
	// Complete is false when a billable item had no service and Total was zeroed.
	Complete bool `json:"complete"`
}

// Summarize computes every billing figure for o.
func Summarize(o Order, settings DiscountSettings) Summary {
	subtotal := Subtotal(o)
	gross, complete := total(o)
	return Summary{
		OrderID:        o.ID,
		BillableItems:  len(BillableItems(o)),
		Subtotal:       subtotal,
		VAT:            gross.Sub(subtotal),
		Total:          gross,
		MemberDiscount: MemberDiscount(o, settings),
		Complete:       complete,
	}
}
