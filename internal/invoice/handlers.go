package invoice

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-lims/internal/common"
	"github.com/noah-isme/backend-lims/internal/order"
)

// BulkEnqueuer queues ad hoc invoicing for many orders; TaskQueue implements it.
type BulkEnqueuer interface {
	EnqueueIssue(ctx context.Context, orderIDs []string) ([]Enqueued, error)
}

// Handler exposes invoicing endpoints.
type Handler struct {
	Orders   order.Repository
	Manager  Issuer
	Queue    BulkEnqueuer
	Validate *validator.Validate
}

type bulkRequest struct {
	OrderIDs []string `json:"order_ids" validate:"required,min=1,max=500,dive,required,max=64"`
}

// IssueOrder attaches one order to the current month's ad hoc batch.
// Responds 201 when the batch was created by this call and 200 when reused.
func (h *Handler) IssueOrder(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Orders == nil || h.Manager == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "invoicing not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "orderID"))
	o, err := h.Orders.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			common.WriteError(w, common.NotFound("order not found", err))
			return
		}
		common.WriteError(w, common.Internal("failed to load order", err))
		return
	}
	receipt, err := h.Manager.IssueAdHoc(r.Context(), o)
	if err != nil {
		common.WriteError(w, common.Internal("failed to issue invoice", err))
		return
	}
	status := http.StatusOK
	if receipt.Created {
		status = http.StatusCreated
	}
	common.JSON(w, status, map[string]any{"data": receipt})
}

// EnqueueAdHoc queues ad hoc invoicing for a list of orders.
func (h *Handler) EnqueueAdHoc(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Queue == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "invoice queue not configured", nil)
		return
	}
	var req bulkRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if details := h.validate(req); details != nil {
		common.WriteError(w, common.BadRequest("validation failed", details))
		return
	}
	results, err := h.Queue.EnqueueIssue(r.Context(), dedupe(req.OrderIDs))
	if err != nil {
		common.WriteError(w, common.Internal("failed to enqueue invoices", err))
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{"data": results})
}

func (h *Handler) validate(req bulkRequest) common.ValidationDetails {
	v := h.Validate
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return common.ValidationDetails{"order_ids": err.Error()}
	}
	details := common.ValidationDetails{}
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
