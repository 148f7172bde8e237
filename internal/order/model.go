package order

import (
	"errors"
	"time"

	"github.com/noah-isme/backend-lims/internal/money"
	"github.com/noah-isme/backend-lims/internal/workflow"
)

// ErrOrderNotFound is returned by repositories when the order id is unknown.
var ErrOrderNotFound = errors.New("order not found")

// ReferenceType tags quality-control analyses hosted on a worksheet.
type ReferenceType string

const (
	RefNone      ReferenceType = ""
	RefBlank     ReferenceType = "blank"
	RefControl   ReferenceType = "control"
	RefDuplicate ReferenceType = "duplicate"
)

// IsReference reports whether the tag marks a blank or control reference analysis.
func (r ReferenceType) IsReference() bool {
	return r == RefBlank || r == RefControl
}

// Manager is the person responsible for a lab department.
type Manager struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Department groups analysis services under one manager.
type Department struct {
	ID      string
	Title   string
	Manager *Manager
}

// Service is the catalogue entry an analysis is performed against.
// Price and VAT are optional; absent values count as zero.
type Service struct {
	ID         string
	Keyword    string
	Title      string
	Price      *money.Money
	VAT        *money.Rate
	Department *Department
}

// UnitPrice returns the service price, zero when unset.
func (s *Service) UnitPrice() money.Money {
	if s == nil {
		return money.Zero
	}
	return money.OrZero(s.Price)
}

// VATRate returns the service VAT rate, zero when unset.
func (s *Service) VATRate() money.Rate {
	if s == nil || s.VAT == nil {
		return money.ZeroRate
	}
	return *s.VAT
}

// LineItem is a single analysis, either requested under an order or hosted on a
// worksheet as a quality-control item.
type LineItem struct {
	ID               string
	Service          *Service
	State            workflow.AnalysisState
	DueDate          *time.Time
	ResultCapturedAt *time.Time
	WorksheetID      string
	ReferenceType    ReferenceType
	// OriginOrderID is set on duplicates and names the order they copy.
	OriginOrderID string
	// OriginServiceID is set on QC items and names the service they check.
	OriginServiceID string
}

// ServiceID returns the id of the service the item was performed against.
func (li LineItem) ServiceID() string {
	if li.Service == nil {
		return ""
	}
	return li.Service.ID
}

// Order is a client's request for laboratory analyses.
type Order struct {
	ID                    string
	RequestID             string
	ClientID              string
	ContactID             string
	SampleID              string
	Items                 []LineItem
	State                 workflow.RequestState
	ReceivedAt            *time.Time
	PublishedAt           *time.Time
	MemberDiscountApplies bool
	InvoiceBatchID        string
}

// Worksheet hosts analyses processed together, including QC items.
type Worksheet struct {
	ID    string
	Title string
	Items []LineItem
}
