package repo

import (
	"context"
	"time"

	"github.com/noah-isme/backend-lims/internal/db"
	"github.com/noah-isme/backend-lims/internal/report"
)

// SampleRepo feeds the samples-received report.
type SampleRepo struct {
	DB db.DBTX
}

// ReceivedSamples returns the samples in the filter's states received within
// its date range, oldest first, each with the analyses requested on it.
func (r SampleRepo) ReceivedSamples(ctx context.Context, f report.Filter) ([]report.SampleRecord, error) {
	states := make([]string, 0, len(f.States))
	for _, s := range f.States {
		states = append(states, string(s))
	}
	rows, err := r.DB.Query(ctx, `SELECT s.id, s.sample_type, COALESCE(p.physical_country, ''), s.date_received, s.sampling_date,
	a.id, COALESCE(ls.keyword, ''), COALESCE(ls.title, '')
FROM samples s
LEFT JOIN patients p ON p.id = s.patient_id
LEFT JOIN analysis_requests ar ON ar.sample_id = s.id
LEFT JOIN analyses a ON a.request_id = ar.id
LEFT JOIN lab_services ls ON ls.id = a.service_id
WHERE s.state = ANY($1)
	AND ($2::timestamptz IS NULL OR s.date_received >= $2)
	AND ($3::timestamptz IS NULL OR s.date_received <= $3)
ORDER BY s.date_received NULLS LAST, s.id, ar.id, a.position, a.id`, states, f.From, f.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.SampleRecord
	for rows.Next() {
		var (
			rec        report.SampleRecord
			analysisID *string
			line       report.AnalysisLine
		)
		if err := rows.Scan(&rec.SampleID, &rec.SampleType, &rec.Country, &rec.DateReceived, &rec.SamplingDate,
			&analysisID, &line.Keyword, &line.Title); err != nil {
			return nil, err
		}
		out = appendSampleRow(out, rec, analysisID != nil, line)
	}
	return out, rows.Err()
}

// appendSampleRow folds consecutive rows of one sample into a single record.
func appendSampleRow(out []report.SampleRecord, rec report.SampleRecord, hasAnalysis bool, line report.AnalysisLine) []report.SampleRecord {
	if n := len(out); n > 0 && out[n-1].SampleID == rec.SampleID && sameTime(out[n-1].DateReceived, rec.DateReceived) {
		if hasAnalysis {
			out[n-1].Analyses = append(out[n-1].Analyses, line)
		}
		return out
	}
	if hasAnalysis {
		rec.Analyses = []report.AnalysisLine{line}
	}
	return append(out, rec)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
