package report

import (
	"errors"
	"strings"
)

// ErrEmptyResult signals that no sample matched; callers show EmptyNotice.
var ErrEmptyResult = errors.New("report: no samples matched")

// Aggregate groups analyses by country. Within a group a sample is counted
// once however many analyses it has; the footer counts distinct samples
// across all input. Samples without analyses add nothing.
func Aggregate(samples []SampleRecord, params []Parameter) (Model, error) {
	if len(samples) == 0 {
		return Model{}, ErrEmptyResult
	}

	var groups []*groupAcc
	byCountry := make(map[string]*groupAcc)
	allSamples := make(map[string]struct{})
	footer := Footer{}

	for _, s := range samples {
		if len(s.Analyses) == 0 {
			continue
		}
		country := strings.TrimSpace(s.Country)
		if country == "" {
			country = UnknownCountry
		}
		g, ok := byCountry[country]
		if !ok {
			g = &groupAcc{Group: Group{Country: country}, seen: make(map[string]struct{})}
			byCountry[country] = g
			groups = append(groups, g)
		}
		for _, a := range s.Analyses {
			g.Rows = append(g.Rows, Row{
				AnalysisKeyword: a.Keyword,
				AnalysisTitle:   a.Title,
				SampleID:        s.SampleID,
				SampleType:      s.SampleType,
				DateReceived:    s.DateReceived,
				SamplingDate:    s.SamplingDate,
			})
			g.AnalysesCount++
			footer.AnalysesCount++
		}
		if _, dup := g.seen[s.SampleID]; !dup {
			g.seen[s.SampleID] = struct{}{}
			g.SamplesCount++
		}
		allSamples[s.SampleID] = struct{}{}
	}
	footer.SamplesCount = len(allSamples)

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Group)
	}
	if params == nil {
		params = []Parameter{}
	}
	return Model{Title: Title, Parameters: params, Groups: out, Footer: footer}, nil
}

type groupAcc struct {
	Group
	seen map[string]struct{}
}
