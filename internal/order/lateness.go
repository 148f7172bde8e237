package order

import "strings"

// IsLate reports whether any unpublished analysis captured its result after
// the due date. Orders still waiting for their sample, and published orders,
// are never late.
func IsLate(o Order) bool {
	if !o.State.LatenessApplies() {
		return false
	}
	for _, it := range o.Items {
		if it.State.Published() {
			continue
		}
		if it.DueDate == nil || it.ResultCapturedAt == nil {
			continue
		}
		if it.DueDate.Before(*it.ResultCapturedAt) {
			return true
		}
	}
	return false
}

// Responsible is a department manager together with the departments they run
// for this order.
type Responsible struct {
	Manager     Manager `json:"manager"`
	Departments string  `json:"departments"`
}

// ResponsibleManagers lists the managers of the departments whose services
// appear on the order, in first-seen order. Departments without a manager are
// skipped.
func ResponsibleManagers(o Order) []Responsible {
	seenDept := make(map[string]struct{})
	index := make(map[string]int)
	var out []Responsible
	for _, it := range o.Items {
		if it.Service == nil || it.Service.Department == nil {
			continue
		}
		dept := it.Service.Department
		if _, ok := seenDept[dept.ID]; ok {
			continue
		}
		seenDept[dept.ID] = struct{}{}
		if dept.Manager == nil {
			continue
		}
		pos, ok := index[dept.Manager.ID]
		if !ok {
			out = append(out, Responsible{Manager: *dept.Manager})
			pos = len(out) - 1
			index[dept.Manager.ID] = pos
		}
		titles := out[pos].Departments
		if titles != "" {
			titles += ", "
		}
		out[pos].Departments = titles + strings.TrimSpace(dept.Title)
	}
	return out
}
