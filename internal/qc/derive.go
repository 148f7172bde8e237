package qc

import (
	"fmt"
	"strings"

	"github.com/noah-isme/backend-lims/internal/order"
)

// Type selects which QC analyses to return.
type Type string

const (
	TypeBlank     Type = "blank"
	TypeControl   Type = "control"
	TypeDuplicate Type = "duplicate"
	TypeAny       Type = "any"
)

// ParseType maps query input onto a Type. Blank input means TypeAny.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case "", TypeAny:
		return TypeAny, nil
	case TypeBlank:
		return TypeBlank, nil
	case TypeControl:
		return TypeControl, nil
	case TypeDuplicate:
		return TypeDuplicate, nil
	default:
		return "", fmt.Errorf("qc: unknown type %q", s)
	}
}

func (t Type) accepts(ref order.ReferenceType) bool {
	if t == TypeAny {
		return true
	}
	return string(t) == string(ref)
}

// Analyses returns the QC analyses related to the order, of the requested type,
// in first-encountered order and without repeats.
//
// Duplicates qualify when they copy this order. Blanks and controls qualify
// when they check a service requested on this order.
func Analyses(o order.Order, idx *Index, want Type) []order.LineItem {
	services := make(map[string]struct{}, len(o.Items))
	for _, it := range o.Items {
		if id := it.ServiceID(); id != "" {
			services[id] = struct{}{}
		}
	}

	visited := make(map[string]struct{})
	seen := make(map[string]struct{})
	var out []order.LineItem
	for _, it := range o.Items {
		wsID, ok := idx.Host(it)
		if !ok {
			continue
		}
		if _, done := visited[wsID]; done {
			continue
		}
		visited[wsID] = struct{}{}

		for _, candidate := range idx.Items(wsID) {
			if !isRelated(o.ID, services, candidate) || !want.accepts(candidate.ReferenceType) {
				continue
			}
			if _, dup := seen[candidate.ID]; dup {
				continue
			}
			seen[candidate.ID] = struct{}{}
			out = append(out, candidate)
		}
	}
	return out
}

func isRelated(orderID string, services map[string]struct{}, it order.LineItem) bool {
	switch {
	case it.ReferenceType == order.RefDuplicate:
		return it.OriginOrderID != "" && it.OriginOrderID == orderID
	case it.ReferenceType.IsReference():
		origin := it.OriginServiceID
		if origin == "" {
			origin = it.ServiceID()
		}
		_, ok := services[origin]
		return ok
	default:
		return false
	}
}
