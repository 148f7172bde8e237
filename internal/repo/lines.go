// Package repo implements the read-side queries over the LIMS schema on pgx.
package repo

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/backend-lims/internal/money"
	"github.com/noah-isme/backend-lims/internal/order"
	"github.com/noah-isme/backend-lims/internal/workflow"
)

// lineColumns selects an analysis with its service, department and manager.
// Callers alias analyses as a.
const lineColumns = `a.id, a.state, a.due_date, a.result_captured_at, COALESCE(a.worksheet_id, ''),
	a.reference_type, COALESCE(a.origin_request_id, ''), COALESCE(a.origin_service_id, ''),
	COALESCE(s.id, ''), COALESCE(s.keyword, ''), COALESCE(s.title, ''), s.price::text, s.vat_percent::text,
	COALESCE(d.id, ''), COALESCE(d.title, ''),
	COALESCE(m.id, ''), COALESCE(m.full_name, ''), COALESCE(m.email, ''), COALESCE(m.phone, '')`

const lineJoins = `LEFT JOIN lab_services s ON s.id = a.service_id
LEFT JOIN departments d ON d.id = s.department_id
LEFT JOIN lab_contacts m ON m.id = d.manager_id`

type lineRow struct {
	ID               string
	State            string
	DueDate          *time.Time
	ResultCapturedAt *time.Time
	WorksheetID      string
	ReferenceType    string
	OriginRequestID  string
	OriginServiceID  string

	ServiceID    string
	Keyword      string
	ServiceTitle string
	Price        *string
	VATPercent   *string

	DepartmentID    string
	DepartmentTitle string

	ManagerID    string
	ManagerName  string
	ManagerEmail string
	ManagerPhone string
}

func (l *lineRow) dest() []any {
	return []any{
		&l.ID, &l.State, &l.DueDate, &l.ResultCapturedAt, &l.WorksheetID,
		&l.ReferenceType, &l.OriginRequestID, &l.OriginServiceID,
		&l.ServiceID, &l.Keyword, &l.ServiceTitle, &l.Price, &l.VATPercent,
		&l.DepartmentID, &l.DepartmentTitle,
		&l.ManagerID, &l.ManagerName, &l.ManagerEmail, &l.ManagerPhone,
	}
}

func (l lineRow) item() (order.LineItem, error) {
	state, err := workflow.ParseAnalysisState(l.State)
	if err != nil {
		return order.LineItem{}, fmt.Errorf("analysis %s: %w", l.ID, err)
	}
	ref := order.ReferenceType(strings.ToLower(strings.TrimSpace(l.ReferenceType)))
	switch ref {
	case order.RefNone, order.RefBlank, order.RefControl, order.RefDuplicate:
	default:
		return order.LineItem{}, fmt.Errorf("analysis %s: unknown reference type %q", l.ID, l.ReferenceType)
	}
	svc, err := l.service()
	if err != nil {
		return order.LineItem{}, fmt.Errorf("analysis %s: %w", l.ID, err)
	}
	return order.LineItem{
		ID:               l.ID,
		Service:          svc,
		State:            state,
		DueDate:          l.DueDate,
		ResultCapturedAt: l.ResultCapturedAt,
		WorksheetID:      l.WorksheetID,
		ReferenceType:    ref,
		OriginOrderID:    l.OriginRequestID,
		OriginServiceID:  l.OriginServiceID,
	}, nil
}

func (l lineRow) service() (*order.Service, error) {
	if l.ServiceID == "" {
		return nil, nil
	}
	svc := &order.Service{ID: l.ServiceID, Keyword: l.Keyword, Title: l.ServiceTitle}
	if l.Price != nil {
		p, err := money.FromString(*l.Price)
		if err != nil {
			return nil, err
		}
		svc.Price = &p
	}
	if l.VATPercent != nil {
		pct, err := money.ParsePercent(*l.VATPercent)
		if err != nil {
			return nil, err
		}
		rate := pct.Rate()
		svc.VAT = &rate
	}
	if l.DepartmentID != "" {
		svc.Department = &order.Department{ID: l.DepartmentID, Title: l.DepartmentTitle}
		if l.ManagerID != "" {
			svc.Department.Manager = &order.Manager{
				ID:       l.ManagerID,
				FullName: l.ManagerName,
				Email:    l.ManagerEmail,
				Phone:    l.ManagerPhone,
			}
		}
	}
	return svc, nil
}
