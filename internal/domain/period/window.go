// Package period describes the time windows reports and reconciliations are scoped to.
package period

import (
	"strings"
	"time"

	"payledger/internal/platform/apperr"
)

type Kind string

const (
	KindMonth Kind = "month"
	KindAll   Kind = "all"
)

var ErrInvalidWindow = apperr.Validation("invalid_period", "period must be \"month\" or \"all\"")

// Window is the half-open interval [From, To). Zero bounds are unbounded.
type Window struct {
	Kind Kind      `json:"kind"`
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// CurrentMonth spans the calendar month containing now, in now's location.
func CurrentMonth(now time.Time) Window {
	return Month(now.Year(), now.Month(), now.Location())
}

func Month(year int, month time.Month, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Window{Kind: KindMonth, From: start, To: start.AddDate(0, 1, 0)}
}

func AllTime() Window {
	return Window{Kind: KindAll}
}

// Parse accepts "month" (current month) or "all"; empty defaults to month.
func Parse(raw string, now time.Time) (Window, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", KindMonth:
		return CurrentMonth(now), nil
	case KindAll:
		return AllTime(), nil
	default:
		return Window{}, ErrInvalidWindow
	}
}

func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// Bounds returns nil for unbounded sides so they bind as SQL NULL.
func (w Window) Bounds() (from, to *time.Time) {
	if !w.From.IsZero() {
		f := w.From
		from = &f
	}
	if !w.To.IsZero() {
		t := w.To
		to = &t
	}
	return from, to
}

// Label is a human period label used on payslips.
func (w Window) Label() string {
	if w.Kind == KindAll {
		return "All time"
	}
	return w.From.Format("January 2006")
}
