package reports

import (
	"strings"
	"time"
)

type Dated interface {
	RecordDate() time.Time
}

type Owned interface {
	Owner() string
}

// DateRange is inclusive on both ends. A zero bound leaves that side open.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// Effective extends To to the end of its day.
func (r DateRange) Effective() DateRange {
	if !r.To.IsZero() {
		r.To = EndOfDay(r.To)
	}
	return r
}

// Inverted reports a range whose start lies after its end as given.
func (r DateRange) Inverted() bool {
	return !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To)
}

func (r DateRange) Contains(t time.Time) bool {
	if r.Inverted() {
		return false
	}
	eff := r.Effective()
	if !eff.From.IsZero() && t.Before(eff.From) {
		return false
	}
	if !eff.To.IsZero() && t.After(eff.To) {
		return false
	}
	return true
}

// FilterByDate keeps items dated inside r, preserving order. An inverted
// range yields an empty result.
func FilterByDate[T Dated](items []T, r DateRange) []T {
	out := make([]T, 0, len(items))
	if r.Inverted() {
		return out
	}
	for _, item := range items {
		if r.Contains(item.RecordDate()) {
			out = append(out, item)
		}
	}
	return out
}

// FilterByEmployee keeps items owned by employeeID. Empty or "all" keeps
// everything.
func FilterByEmployee[T Owned](items []T, employeeID string) []T {
	out := make([]T, 0, len(items))
	if IsAllEmployees(employeeID) {
		return append(out, items...)
	}
	employeeID = strings.TrimSpace(employeeID)
	for _, item := range items {
		if item.Owner() == employeeID {
			out = append(out, item)
		}
	}
	return out
}

func IsAllEmployees(employeeID string) bool {
	employeeID = strings.TrimSpace(employeeID)
	return employeeID == "" || strings.EqualFold(employeeID, AllEmployees)
}
