package qc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-lims/internal/order"
	"github.com/noah-isme/backend-lims/internal/qc"
)

type repoStub struct {
	orders     map[string]order.Order
	worksheets []order.Worksheet
	wsErr      error
}

func (r repoStub) GetOrder(_ context.Context, id string) (order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return order.Order{}, order.ErrOrderNotFound
	}
	return o, nil
}

func (r repoStub) WorksheetsForOrder(context.Context, string) ([]order.Worksheet, error) {
	return r.worksheets, r.wsErr
}

func serveQC(repo qc.Repository, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/orders/{orderID}/qc", (&qc.Handler{Repo: repo}).List)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListHandler(t *testing.T) {
	o, worksheets := fixture()
	repo := repoStub{orders: map[string]order.Order{o.ID: o}, worksheets: worksheets}

	rec := serveQC(repo, "/orders/AR-1/qc?type=duplicate")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []qc.Item `json:"data"`
		Type string    `json:"type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "duplicate", body.Type)
	require.Len(t, body.Data, 2)
	require.Equal(t, "d-ar1-cu", body.Data[0].ID)
	require.Equal(t, "WS-1", body.Data[0].WorksheetID)
	require.Equal(t, "AR-1", body.Data[0].OriginOrderID)
	require.Equal(t, "WS-2", body.Data[1].WorksheetID)
}

func TestListHandlerErrors(t *testing.T) {
	o, _ := fixture()
	repo := repoStub{orders: map[string]order.Order{o.ID: o}}

	require.Equal(t, http.StatusBadRequest, serveQC(repo, "/orders/AR-1/qc?type=spike").Code)
	require.Equal(t, http.StatusNotFound, serveQC(repo, "/orders/AR-404/qc").Code)

	repo.wsErr = errors.New("db down")
	require.Equal(t, http.StatusInternalServerError, serveQC(repo, "/orders/AR-1/qc").Code)
	require.Equal(t, http.StatusInternalServerError, serveQC(nil, "/orders/AR-1/qc").Code)
}
