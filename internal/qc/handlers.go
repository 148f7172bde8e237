package qc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-lims/internal/common"
	"github.com/noah-isme/backend-lims/internal/obs"
	"github.com/noah-isme/backend-lims/internal/order"
)

// Repository loads an order and every worksheet hosting one of its analyses,
// including the QC items on those worksheets.
type Repository interface {
	GetOrder(ctx context.Context, id string) (order.Order, error)
	WorksheetsForOrder(ctx context.Context, orderID string) ([]order.Worksheet, error)
}

// Handler serves QC analyses for an order.
type Handler struct {
	Repo Repository
}

// Item is the public shape of a QC analysis.
type Item struct {
	ID              string `json:"id"`
	ReferenceType   string `json:"reference_type"`
	ServiceID       string `json:"service_id,omitempty"`
	Keyword         string `json:"keyword,omitempty"`
	State           string `json:"state"`
	WorksheetID     string `json:"worksheet_id,omitempty"`
	OriginOrderID   string `json:"origin_order_id,omitempty"`
	OriginServiceID string `json:"origin_service_id,omitempty"`
}

// List returns the QC analyses of the requested type (?type=blank|control|duplicate|any).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "qc repository not configured", nil)
		return
	}
	want, err := ParseType(r.URL.Query().Get("type"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "type must be one of blank, control, duplicate, any", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "orderID"))
	ctx := r.Context()
	o, err := h.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	worksheets, err := h.Repo.WorksheetsForOrder(ctx, o.ID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load worksheets", nil)
		return
	}
	idx := NewIndex(worksheets)
	found := Analyses(o, idx, want)
	if obs.QCDerivedItems != nil {
		obs.QCDerivedItems.WithLabelValues(string(want)).Observe(float64(len(found)))
	}

	items := make([]Item, 0, len(found))
	for _, it := range found {
		wsID, _ := idx.Host(it)
		item := Item{
			ID:              it.ID,
			ReferenceType:   string(it.ReferenceType),
			ServiceID:       it.ServiceID(),
			State:           string(it.State),
			WorksheetID:     wsID,
			OriginOrderID:   it.OriginOrderID,
			OriginServiceID: it.OriginServiceID,
		}
		if it.Service != nil {
			item.Keyword = it.Service.Keyword
		}
		items = append(items, item)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items, "type": want})
}
