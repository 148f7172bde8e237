package report

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-lims/internal/common"
	"github.com/noah-isme/backend-lims/internal/workflow"
)

const dateLayout = "2006-01-02"

// Filter selects the samples that feed the report.
type Filter struct {
	States []workflow.SampleState `json:"states" validate:"required,min=1,dive,oneof=sample_due sample_received expired disposed rejected"`
	From   *time.Time             `json:"from,omitempty"`
	To     *time.Time             `json:"to,omitempty"`
}

// DefaultFilter covers every received sample regardless of date.
func DefaultFilter() Filter {
	return Filter{States: workflow.ReceivedStates()}
}

// ParseFilter reads ?state=&from=&to= (state may repeat or be comma separated).
// Dates are whole days in loc; To covers the full day.
func ParseFilter(q url.Values, loc *time.Location) (Filter, error) {
	f := DefaultFilter()
	var states []workflow.SampleState
	for _, raw := range q["state"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			st, err := workflow.ParseSampleState(part)
			if err != nil {
				return Filter{}, common.BadRequest("invalid state", map[string]string{"state": part})
			}
			states = append(states, st)
		}
	}
	if len(states) > 0 {
		f.States = states
	}
	from, err := common.ParseDateParam(q.Get("from"), loc)
	if err != nil {
		return Filter{}, common.BadRequest("invalid from date", map[string]string{"from": q.Get("from")})
	}
	to, err := common.ParseDateParam(q.Get("to"), loc)
	if err != nil {
		return Filter{}, common.BadRequest("invalid to date", map[string]string{"to": q.Get("to")})
	}
	if to != nil && len(strings.TrimSpace(q.Get("to"))) == len(dateLayout) {
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}
	f.From, f.To = from, to
	return f, nil
}

// Validate checks the state allowlist and that the range is not inverted.
func (f Filter) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	if err := v.Struct(f); err != nil {
		return common.BadRequest("invalid report filter", common.ValidationDetails{"states": err.Error()})
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return common.BadRequest("to must not be before from", nil)
	}
	return nil
}

// Parameters lists the applied date range for the report header.
func (f Filter) Parameters() []Parameter {
	if f.From == nil && f.To == nil {
		return []Parameter{}
	}
	from, to := "", ""
	if f.From != nil {
		from = f.From.Format(dateLayout)
	}
	if f.To != nil {
		to = f.To.Format(dateLayout)
	}
	return []Parameter{{Title: "Date Received", Value: strings.TrimSpace(from + " - " + to)}}
}

// CacheKey is stable for equal filters regardless of state order.
func (f Filter) CacheKey() string {
	states := make([]string, 0, len(f.States))
	for _, s := range f.States {
		states = append(states, string(s))
	}
	sort.Strings(states)
	stamp := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return fmt.Sprint(t.UTC().Unix())
	}
	return strings.Join([]string{"lims", "report", "received", strings.Join(states, ","), stamp(f.From), stamp(f.To)}, ":")
}
