package order

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-lims/internal/common"
	"github.com/noah-isme/backend-lims/internal/obs"
	"github.com/noah-isme/backend-lims/internal/workflow"
)

// Repository loads orders with their line items, services and departments.
type Repository interface {
	GetOrder(ctx context.Context, id string) (Order, error)
}

// Handler exposes read endpoints for order billing and status.
type Handler struct {
	Repo      Repository
	Settings  DiscountSettings
	Workflow  workflow.Reader
	Directory workflow.Directory
}

// Valuation returns subtotal, VAT, total and member discount for an order.
func (h *Handler) Valuation(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	summary := Summarize(o, h.Settings)
	if obs.ValuationTotal != nil {
		result := "complete"
		if !summary.Complete {
			result = "aborted"
		}
		obs.ValuationTotal.WithLabelValues(result).Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}

// Overview reports lateness, the verifier and the responsible managers.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	verifier := ""
	if h.Workflow != nil {
		history, err := h.Workflow.History(r.Context(), workflow.KindRequest, o.ID)
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load workflow history", nil)
			return
		}
		verifier, err = workflow.Verifier(r.Context(), history, h.Directory)
		if err != nil && !errors.Is(err, workflow.ErrNoHistory) {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to resolve verifier", nil)
			return
		}
	}
	responsible := ResponsibleManagers(o)
	if responsible == nil {
		responsible = []Responsible{}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"id":          o.ID,
			"request_id":  o.RequestID,
			"state":       o.State,
			"late":        IsLate(o),
			"verifier":    verifier,
			"responsible": responsible,
			"invoiced":    o.InvoiceBatchID != "",
		},
	})
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Order, bool) {
	if h == nil || h.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order repository not configured", nil)
		return Order{}, false
	}
	id := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "order id is required", nil)
		return Order{}, false
	}
	o, err := h.Repo.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return Order{}, false
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return Order{}, false
	}
	return o, true
}
