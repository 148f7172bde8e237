package order_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-lims/internal/money"
	"github.com/noah-isme/backend-lims/internal/order"
	"github.com/noah-isme/backend-lims/internal/workflow"
)

func service(id, price, vatPercent string) *order.Service {
	svc := &order.Service{ID: id, Keyword: id, Title: id}
	if price != "" {
		p := money.MustParse(price)
		svc.Price = &p
	}
	if vatPercent != "" {
		r := money.RateFromPercent(decimal.RequireFromString(vatPercent))
		svc.VAT = &r
	}
	return svc
}

func item(id string, svc *order.Service, state workflow.AnalysisState) order.LineItem {
	return order.LineItem{ID: id, Service: svc, State: state}
}

func sampleOrder() order.Order {
	return order.Order{
		ID:       "AR-0001",
		ClientID: "client-1",
		State:    workflow.RequestSampleReceived,
		Items: []order.LineItem{
			item("a1", service("cu", "100.00", "14"), workflow.AnalysisToBeVerified),
			item("a2", service("fe", "50.50", "14"), workflow.AnalysisVerified),
			item("a3", service("zn", "20.00", ""), workflow.AnalysisPublished),
			item("a4", service("pb", "999.00", "14"), workflow.AnalysisNotRequested),
		},
	}
}

func TestBillableItemsSkipsNotRequested(t *testing.T) {
	billable := order.BillableItems(sampleOrder())
	require.Len(t, billable, 3)
	for _, it := range billable {
		require.NotEqual(t, workflow.AnalysisNotRequested, it.State)
	}
	require.Empty(t, order.BillableItems(order.Order{}))
}

func TestSubtotalTotalVAT(t *testing.T) {
	o := sampleOrder()
	require.Equal(t, "170.50", order.Subtotal(o).String())
	// 114.00 + 57.57 (57.57 exactly) + 20.00
	require.Equal(t, "191.57", order.Total(o).String())
	require.Equal(t, "21.07", order.VAT(o).String())
	require.True(t, order.VAT(o).Equal(order.Total(o).Sub(order.Subtotal(o))))
}

func TestTotalNeverBelowSubtotalWithNonNegativeVAT(t *testing.T) {
	o := sampleOrder()
	for i := 0; i < 5; i++ {
		o.Items = append(o.Items, item("x", service("s", "0.33", "7.5"), workflow.AnalysisSampleReceived))
		require.GreaterOrEqual(t, order.Total(o).Cmp(order.Subtotal(o)), 0)
	}
}

func TestRemovingNotRequestedItemDoesNotChangeFigures(t *testing.T) {
	o := sampleOrder()
	subtotal, total := order.Subtotal(o), order.Total(o)
	o.Items = o.Items[:3]
	require.True(t, subtotal.Equal(order.Subtotal(o)))
	require.True(t, total.Equal(order.Total(o)))
}

func TestSubtotalIsMonotonic(t *testing.T) {
	o := sampleOrder()
	before := order.Subtotal(o)
	o.Items = append(o.Items, item("a5", service("hg", "", ""), workflow.AnalysisAssigned))
	require.True(t, before.Equal(order.Subtotal(o)))
	o.Items = append(o.Items, item("a6", service("as", "1.00", ""), workflow.AnalysisAssigned))
	require.Equal(t, 1, order.Subtotal(o).Cmp(before))
}

func TestTotalAbortsOnMissingService(t *testing.T) {
	o := sampleOrder()
	o.Items = append(o.Items, order.LineItem{ID: "orphan", State: workflow.AnalysisToBeVerified})
	require.True(t, order.Total(o).IsZero())
	require.Equal(t, "170.50", order.Subtotal(o).String())

	summary := order.Summarize(o, nil)
	require.False(t, summary.Complete)
	require.True(t, summary.Total.IsZero())
	require.True(t, summary.VAT.Equal(summary.Total.Sub(summary.Subtotal)))
}

func TestMissingPriceCountsAsZero(t *testing.T) {
	o := order.Order{Items: []order.LineItem{
		item("a1", service("cu", "", "14"), workflow.AnalysisVerified),
		item("a2", service("fe", "10.00", ""), workflow.AnalysisVerified),
	}}
	require.Equal(t, "10.00", order.Subtotal(o).String())
	require.Equal(t, "10.00", order.Total(o).String())
	require.True(t, order.VAT(o).IsZero())
}

func TestMemberDiscount(t *testing.T) {
	rate, err := money.ParsePercent("7.5")
	require.NoError(t, err)
	settings := order.StaticDiscount(rate)

	o := sampleOrder()
	require.Equal(t, "0.00", order.MemberDiscount(o, settings).String())

	o.MemberDiscountApplies = true
	require.Equal(t, "7.50", order.MemberDiscount(o, settings).String())
	require.True(t, order.MemberDiscount(o, nil).IsZero())

	summary := order.Summarize(o, settings)
	require.True(t, summary.Complete)
	require.Equal(t, 3, summary.BillableItems)
	require.Equal(t, "7.50", summary.MemberDiscount.String())
	require.Equal(t, "191.57", summary.Total.String())
}

func TestIsLate(t *testing.T) {
	due := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	captured := due.Add(time.Hour)
	early := due.Add(-time.Hour)

	o := order.Order{State: workflow.RequestToBeVerified, Items: []order.LineItem{
		{ID: "a1", State: workflow.AnalysisToBeVerified, DueDate: &due, ResultCapturedAt: &early},
	}}
	require.False(t, order.IsLate(o))

	o.Items = append(o.Items, order.LineItem{ID: "a2", State: workflow.AnalysisToBeVerified, DueDate: &due, ResultCapturedAt: &captured})
	require.True(t, order.IsLate(o))

	o.Items[1].State = workflow.AnalysisPublished
	require.False(t, order.IsLate(o))

	o.Items[1].State = workflow.AnalysisToBeVerified
	o.State = workflow.RequestPublished
	require.False(t, order.IsLate(o))

	o.State = workflow.RequestSampleDue
	require.False(t, order.IsLate(o))
}

func TestResponsibleManagers(t *testing.T) {
	alice := &order.Manager{ID: "m1", FullName: "Alice"}
	bob := &order.Manager{ID: "m2", FullName: "Bob"}
	chem := &order.Department{ID: "d1", Title: "Chemistry", Manager: alice}
	micro := &order.Department{ID: "d2", Title: "Microbiology", Manager: bob}
	metals := &order.Department{ID: "d3", Title: "Metals", Manager: alice}
	orphan := &order.Department{ID: "d4", Title: "Archive"}

	withDept := func(id string, d *order.Department) order.LineItem {
		svc := service(id, "1.00", "")
		svc.Department = d
		return item(id, svc, workflow.AnalysisVerified)
	}
	o := order.Order{Items: []order.LineItem{
		withDept("a1", chem),
		withDept("a2", micro),
		withDept("a3", chem),
		withDept("a4", metals),
		withDept("a5", orphan),
		{ID: "a6"},
	}}

	got := order.ResponsibleManagers(o)
	require.Len(t, got, 2)
	require.Equal(t, "m1", got[0].Manager.ID)
	require.Equal(t, "Chemistry, Metals", got[0].Departments)
	require.Equal(t, "m2", got[1].Manager.ID)
	require.Equal(t, "Microbiology", got[1].Departments)
}
