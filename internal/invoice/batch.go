// Package invoice groups orders into monthly ad hoc invoice batches.
package invoice

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-lims/internal/money"
)

// DefaultCategory names the batch family used for ad hoc invoicing.
const DefaultCategory = "ad hoc"

const titleLayout = "Jan 2006"

// ErrBatchNotFound is returned by stores when no batch matches a lookup.
var ErrBatchNotFound = errors.New("invoice: batch not found")

// Batch is a calendar-month invoice batch. (Category, PeriodStart) is unique.
type Batch struct {
	ID          uuid.UUID `json:"id"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	CreatedAt   time.Time `json:"created_at"`
}

// Contains reports whether t falls inside the batch period, both ends inclusive.
func (b Batch) Contains(t time.Time) bool {
	return !t.Before(b.PeriodStart) && !t.After(b.PeriodEnd)
}

// ClientInvoice is the per-client total within a batch.
type ClientInvoice struct {
	BatchID  uuid.UUID   `json:"batch_id"`
	ClientID string      `json:"client_id"`
	Total    money.Money `json:"total"`
	Orders   int         `json:"orders"`
}

// Attachment links an order and its valued total to a client invoice.
type Attachment struct {
	ClientID string
	OrderID  string
	Total    money.Money
}

// Title renders the batch title for the month containing t, e.g. "Mar 2024 - ad hoc".
func Title(t time.Time, category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultCategory
	}
	return t.Format(titleLayout) + " - " + category
}

// MonthBounds returns the first and last instant of the month containing t, in
// t's location. The end is 23:59:59 on the last day, found by stepping forward
// one day at a time while the month is unchanged.
func MonthBounds(t time.Time) (start, end time.Time) {
	loc := t.Location()
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	last := start
	for next := start.AddDate(0, 0, 1); next.Month() == start.Month(); next = next.AddDate(0, 0, 1) {
		last = next
	}
	end = time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, 0, loc)
	return start, end
}

// NewBatch builds an unsaved batch for the month containing now.
func NewBatch(now time.Time, category string) Batch {
	start, end := MonthBounds(now)
	if strings.TrimSpace(category) == "" {
		category = DefaultCategory
	}
	return Batch{
		ID:          uuid.New(),
		Category:    strings.TrimSpace(category),
		Title:       Title(now, category),
		PeriodStart: start,
		PeriodEnd:   end,
		CreatedAt:   now,
	}
}
