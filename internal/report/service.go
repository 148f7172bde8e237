package report

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-lims/internal/obs"
)

// SampleSource runs the received-samples query: records matching the filter,
// sorted by received date, each with its analyses.
type SampleSource interface {
	ReceivedSamples(ctx context.Context, f Filter) ([]SampleRecord, error)
}

// Service builds samples-received reports with a Redis read-through cache.
type Service struct {
	Source SampleSource
	Cache  *Cache
	Logger zerolog.Logger
}

// SamplesReceived returns the report for f. ErrEmptyResult is returned when
// nothing matched; source errors are returned unchanged.
func (s *Service) SamplesReceived(ctx context.Context, f Filter) (Model, error) {
	if s == nil || s.Source == nil {
		return Model{}, errors.New("report: sample source not configured")
	}
	key := f.CacheKey()
	var cached Model
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("read report cache")
	} else if ok {
		count("cached")
		return cached, nil
	}

	samples, err := s.Source.ReceivedSamples(ctx, f)
	if err != nil {
		count("error")
		return Model{}, err
	}
	model, err := Aggregate(samples, f.Parameters())
	if err != nil {
		if errors.Is(err, ErrEmptyResult) {
			count("empty")
		}
		return Model{}, err
	}
	if err := s.Cache.SetJSON(ctx, key, model); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("write report cache")
	}
	count("ok")
	s.Logger.Debug().
		Int("groups", len(model.Groups)).
		Int("analyses", model.Footer.AnalysesCount).
		Int("samples", model.Footer.SamplesCount).
		Msg("samples received report built")
	return model, nil
}

func count(result string) {
	if obs.ReportGeneratedTotal != nil {
		obs.ReportGeneratedTotal.WithLabelValues(result).Inc()
	}
}
