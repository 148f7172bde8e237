// Package qc derives the quality-control analyses related to an order through
// the worksheets its analyses were processed on.
package qc

import "github.com/noah-isme/backend-lims/internal/order"

// Index holds the worksheet edges needed for one derivation: which worksheet
// hosts each analysis, and which analyses each worksheet holds. Build it once
// per request from the worksheets touching the order.
type Index struct {
	hostOf     map[string]string
	worksheets map[string][]order.LineItem
}

// NewIndex builds the edges from worksheet membership.
func NewIndex(worksheets []order.Worksheet) *Index {
	idx := &Index{
		hostOf:     make(map[string]string),
		worksheets: make(map[string][]order.LineItem, len(worksheets)),
	}
	for _, ws := range worksheets {
		if ws.ID == "" {
			continue
		}
		idx.worksheets[ws.ID] = append(idx.worksheets[ws.ID], ws.Items...)
		for _, it := range ws.Items {
			if _, ok := idx.hostOf[it.ID]; !ok {
				idx.hostOf[it.ID] = ws.ID
			}
		}
	}
	return idx
}

// Host returns the worksheet hosting the analysis. Membership recorded on a
// worksheet wins over the analysis' own worksheet reference.
func (idx *Index) Host(it order.LineItem) (string, bool) {
	if idx == nil {
		return "", false
	}
	if ws, ok := idx.hostOf[it.ID]; ok {
		return ws, true
	}
	if it.WorksheetID != "" {
		if _, ok := idx.worksheets[it.WorksheetID]; ok {
			return it.WorksheetID, true
		}
	}
	return "", false
}

// Items lists the analyses held by a worksheet in stored order.
func (idx *Index) Items(worksheetID string) []order.LineItem {
	if idx == nil {
		return nil
	}
	return idx.worksheets[worksheetID]
}
