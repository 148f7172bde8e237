package report

import (
	"errors"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-lims/internal/common"
)

// Handler serves report endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
	Location *time.Location
}

// SamplesReceived handles GET /reports/samples-received?from=&to=&state=.
// An empty result answers 200 with a notice and no data.
func (h *Handler) SamplesReceived(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "report service not configured", nil)
		return
	}
	f, err := ParseFilter(r.URL.Query(), h.Location)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := f.Validate(h.Validate); err != nil {
		common.WriteError(w, err)
		return
	}
	model, err := h.Svc.SamplesReceived(r.Context(), f)
	switch {
	case errors.Is(err, ErrEmptyResult):
		common.JSON(w, http.StatusOK, map[string]any{"data": nil, "notice": EmptyNotice})
	case err != nil:
		common.WriteError(w, common.Internal("failed to build report", err))
	default:
		common.JSON(w, http.StatusOK, map[string]any{"data": model})
	}
}
