package report_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-lims/internal/report"
)

type sourceStub struct {
	records []report.SampleRecord
	err     error
	calls   int
	last    report.Filter
}

func (s *sourceStub) ReceivedSamples(_ context.Context, f report.Filter) ([]report.SampleRecord, error) {
	s.calls++
	s.last = f
	return s.records, s.err
}

func TestServiceCachesReports(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	src := &sourceStub{records: []report.SampleRecord{sample("S-1", "KE", "cu")}}
	svc := &report.Service{Source: src, Cache: report.NewCache(rdb, time.Minute)}

	f := report.DefaultFilter()
	first, err := svc.SamplesReceived(context.Background(), f)
	require.NoError(t, err)
	second, err := svc.SamplesReceived(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)
	require.Equal(t, first.Footer, second.Footer)
	require.True(t, mr.Exists(f.CacheKey()))

	mr.FastForward(2 * time.Minute)
	_, err = svc.SamplesReceived(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)
}

func TestServiceWithoutCache(t *testing.T) {
	src := &sourceStub{}
	svc := &report.Service{Source: src}
	_, err := svc.SamplesReceived(context.Background(), report.DefaultFilter())
	require.ErrorIs(t, err, report.ErrEmptyResult)

	boom := errors.New("query failed")
	src.err = boom
	_, err = svc.SamplesReceived(context.Background(), report.DefaultFilter())
	require.Equal(t, boom, err)
}

func newReportRouter(h *report.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/reports/samples-received", h.SamplesReceived)
	return r
}

func TestSamplesReceivedHandler(t *testing.T) {
	src := &sourceStub{records: []report.SampleRecord{sample("S-1", "KE", "cu", "fe")}}
	h := &report.Handler{Svc: &report.Service{Source: src}, Location: time.UTC}

	rec := httptest.NewRecorder()
	newReportRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/samples-received?from=2024-03-01&to=2024-03-02", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data report.Model `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Data.Footer.AnalysesCount)
	require.Equal(t, "Daily samples received", body.Data.Title)
	require.NotNil(t, src.last.From)
}

func TestSamplesReceivedHandlerNoticeAndErrors(t *testing.T) {
	src := &sourceStub{}
	h := &report.Handler{Svc: &report.Service{Source: src}}

	rec := httptest.NewRecorder()
	newReportRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/samples-received", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), report.EmptyNotice)

	rec = httptest.NewRecorder()
	newReportRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/samples-received?from=2024-03-05&to=2024-03-01", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	newReportRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/samples-received?state=lost", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	src.err = errors.New("db down")
	rec = httptest.NewRecorder()
	newReportRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/samples-received", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
