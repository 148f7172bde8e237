package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-lims/internal/db"
	"github.com/noah-isme/backend-lims/internal/order"
	"github.com/noah-isme/backend-lims/internal/workflow"
)

// OrderRepo loads analysis requests and the worksheets their analyses sit on.
type OrderRepo struct {
	DB db.DBTX
}

// GetOrder looks the request up by internal id or request id. The member
// discount applies when either the request or its client carries the flag.
func (r OrderRepo) GetOrder(ctx context.Context, id string) (order.Order, error) {
	var (
		o          order.Order
		state      string
		received   *time.Time
		published  *time.Time
		invoiceRef string
	)
	err := r.DB.QueryRow(ctx, `SELECT ar.id, ar.request_id, ar.client_id, COALESCE(ar.contact_id, ''), COALESCE(ar.sample_id, ''),
	ar.state, ar.received_at, ar.published_at,
	ar.member_discount_applies OR c.member_discount_applies,
	COALESCE(ar.invoice_batch_id::text, '')
FROM analysis_requests ar
JOIN clients c ON c.id = ar.client_id
WHERE ar.id = $1 OR ar.request_id = $1
ORDER BY (ar.id = $1) DESC
LIMIT 1`, id).Scan(&o.ID, &o.RequestID, &o.ClientID, &o.ContactID, &o.SampleID,
		&state, &received, &published, &o.MemberDiscountApplies, &invoiceRef)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, order.ErrOrderNotFound
	}
	if err != nil {
		return order.Order{}, err
	}
	if o.State, err = workflow.ParseRequestState(state); err != nil {
		return order.Order{}, err
	}
	o.ReceivedAt, o.PublishedAt, o.InvoiceBatchID = received, published, invoiceRef

	rows, err := r.DB.Query(ctx, `SELECT `+lineColumns+`
FROM analyses a
`+lineJoins+`
WHERE a.request_id = $1
ORDER BY a.position, a.id`, o.ID)
	if err != nil {
		return order.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l lineRow
		if err := rows.Scan(l.dest()...); err != nil {
			return order.Order{}, err
		}
		it, err := l.item()
		if err != nil {
			return order.Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// WorksheetsForOrder returns every worksheet holding an analysis of the order,
// each with all of its analyses in position order.
func (r OrderRepo) WorksheetsForOrder(ctx context.Context, orderID string) ([]order.Worksheet, error) {
	rows, err := r.DB.Query(ctx, `SELECT w.id, w.title, `+lineColumns+`
FROM analyses a
JOIN worksheets w ON w.id = a.worksheet_id
`+lineJoins+`
WHERE a.worksheet_id IN (
	SELECT worksheet_id FROM analyses WHERE request_id = $1 AND worksheet_id IS NOT NULL
)
ORDER BY w.id, a.position, a.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var acc worksheetAccumulator
	for rows.Next() {
		var (
			wsID, title string
			l           lineRow
		)
		if err := rows.Scan(append([]any{&wsID, &title}, l.dest()...)...); err != nil {
			return nil, err
		}
		it, err := l.item()
		if err != nil {
			return nil, err
		}
		acc.add(wsID, title, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return acc.worksheets(), nil
}

type worksheetAccumulator struct {
	order []string
	byID  map[string]*order.Worksheet
}

func (a *worksheetAccumulator) add(id, title string, it order.LineItem) {
	if a.byID == nil {
		a.byID = make(map[string]*order.Worksheet)
	}
	ws, ok := a.byID[id]
	if !ok {
		ws = &order.Worksheet{ID: id, Title: title}
		a.byID[id] = ws
		a.order = append(a.order, id)
	}
	ws.Items = append(ws.Items, it)
}

func (a *worksheetAccumulator) worksheets() []order.Worksheet {
	out := make([]order.Worksheet, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.byID[id])
	}
	return out
}
