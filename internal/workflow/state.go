// Package workflow models the read side of the lab workflow: the closed sets of
// review states per entity kind and the transition history.
package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownState is returned when a stored state label is not part of the enumeration.
var ErrUnknownState = errors.New("workflow: unknown state")

// Kind identifies the entity type a state belongs to.
type Kind string

const (
	KindRequest  Kind = "analysis_request"
	KindAnalysis Kind = "analysis"
	KindSample   Kind = "sample"
)

// AnalysisState is the review state of a single analysis line item.
type AnalysisState string

const (
	AnalysisNotRequested   AnalysisState = "not_requested"
	AnalysisSampleDue      AnalysisState = "sample_due"
	AnalysisSampleReceived AnalysisState = "sample_received"
	AnalysisAssigned       AnalysisState = "assigned"
	AnalysisAttachmentDue  AnalysisState = "attachment_due"
	AnalysisToBeVerified   AnalysisState = "to_be_verified"
	AnalysisVerified       AnalysisState = "verified"
	AnalysisPublished      AnalysisState = "published"
	AnalysisRetracted      AnalysisState = "retracted"
	AnalysisRejected       AnalysisState = "rejected"
)

var analysisStates = []AnalysisState{
	AnalysisNotRequested,
	AnalysisSampleDue,
	AnalysisSampleReceived,
	AnalysisAssigned,
	AnalysisAttachmentDue,
	AnalysisToBeVerified,
	AnalysisVerified,
	AnalysisPublished,
	AnalysisRetracted,
	AnalysisRejected,
}

// ParseAnalysisState maps a stored label onto the enumeration.
func ParseAnalysisState(s string) (AnalysisState, error) {
	label := AnalysisState(normalize(s))
	for _, st := range analysisStates {
		if st == label {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: analysis %q", ErrUnknownState, s)
}

// Billable reports whether an analysis in this state is charged to the client.
func (s AnalysisState) Billable() bool {
	return s != AnalysisNotRequested
}

// Published reports whether results have been released.
func (s AnalysisState) Published() bool { return s == AnalysisPublished }

// RequestState is the review state of an order (analysis request).
type RequestState string

const (
	RequestToBeSampled    RequestState = "to_be_sampled"
	RequestToBePreserved  RequestState = "to_be_preserved"
	RequestSampleDue      RequestState = "sample_due"
	RequestSampleReceived RequestState = "sample_received"
	RequestAttachmentDue  RequestState = "attachment_due"
	RequestToBeVerified   RequestState = "to_be_verified"
	RequestVerified       RequestState = "verified"
	RequestPublished      RequestState = "published"
	RequestInvalid        RequestState = "invalid"
	RequestCancelled      RequestState = "cancelled"
)

var requestStates = []RequestState{
	RequestToBeSampled,
	RequestToBePreserved,
	RequestSampleDue,
	RequestSampleReceived,
	RequestAttachmentDue,
	RequestToBeVerified,
	RequestVerified,
	RequestPublished,
	RequestInvalid,
	RequestCancelled,
}

// ParseRequestState maps a stored label onto the enumeration.
func ParseRequestState(s string) (RequestState, error) {
	label := RequestState(normalize(s))
	for _, st := range requestStates {
		if st == label {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: request %q", ErrUnknownState, s)
}

// LatenessApplies reports whether analyses of an order in this state can be late.
// Orders still waiting for the sample, and published orders, never are.
func (s RequestState) LatenessApplies() bool {
	switch s {
	case RequestToBeSampled, RequestToBePreserved, RequestSampleDue, RequestPublished:
		return false
	default:
		return true
	}
}

// SampleState is the review state of a physical sample.
type SampleState string

const (
	SampleDue      SampleState = "sample_due"
	SampleReceived SampleState = "sample_received"
	SampleExpired  SampleState = "expired"
	SampleDisposed SampleState = "disposed"
	SampleRejected SampleState = "rejected"
)

var sampleStates = []SampleState{SampleDue, SampleReceived, SampleExpired, SampleDisposed, SampleRejected}

// ParseSampleState maps a stored label onto the enumeration.
func ParseSampleState(s string) (SampleState, error) {
	label := SampleState(normalize(s))
	for _, st := range sampleStates {
		if st == label {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: sample %q", ErrUnknownState, s)
}

// ReceivedStates lists the sample states that count as received for reporting.
func ReceivedStates() []SampleState {
	return []SampleState{SampleReceived, SampleExpired, SampleDisposed}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
