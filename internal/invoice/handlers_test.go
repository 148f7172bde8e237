package invoice_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-lims/internal/invoice"
)

type bulkStub struct {
	got []string
	err error
}

func (b *bulkStub) EnqueueIssue(_ context.Context, ids []string) ([]invoice.Enqueued, error) {
	b.got = ids
	if b.err != nil {
		return nil, b.err
	}
	out := make([]invoice.Enqueued, 0, len(ids))
	for _, id := range ids {
		out = append(out, invoice.Enqueued{OrderID: id, Status: "queued"})
	}
	return out, nil
}

func router(h *invoice.Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/orders/{orderID}/invoice", h.IssueOrder)
	r.Post("/invoices/ad-hoc", h.EnqueueAdHoc)
	return r
}

func TestIssueOrderHandler(t *testing.T) {
	issuer := &issuerStub{}
	h := &invoice.Handler{Orders: orderRepo{"AR-1": {ID: "AR-1"}}, Manager: issuer}

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/AR-1/invoice", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/AR-1/invoice", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Batch struct {
				Title string `json:"title"`
			} `json:"batch"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Data.Batch.Title, "- ad hoc")

	rec = httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/nope/invoice", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	h.Manager = &issuerStub{err: errors.New("db down")}
	rec = httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/AR-1/invoice", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "db down")
}

func TestEnqueueAdHocHandler(t *testing.T) {
	q := &bulkStub{}
	h := &invoice.Handler{Queue: q}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoices/ad-hoc", strings.NewReader(`{"order_ids":["AR-1"," AR-1 ","AR-2"]}`))
	router(h).ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []string{"AR-1", "AR-2"}, q.got)

	for _, body := range []string{`{"order_ids":[]}`, `{"order_ids":[""]}`, `{}`, `{"ids":["x"]}`, `nope`} {
		rec = httptest.NewRecorder()
		router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoices/ad-hoc", strings.NewReader(body)))
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	q.err = errors.New("redis down")
	rec = httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoices/ad-hoc", strings.NewReader(`{"order_ids":["AR-3"]}`)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
