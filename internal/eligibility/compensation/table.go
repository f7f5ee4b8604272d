package compensation

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrDuplicateThreshold = errors.New("duplicate band threshold")
	ErrInvalidBand        = errors.New("invalid compensation band")
	ErrEmptyTable         = errors.New("compensation table has no bands")
)

// Band pays Percentage for delays at or above Threshold and below the next
// band's threshold.
type Band struct {
	Threshold  int `json:"threshold_minutes" mapstructure:"threshold_minutes"`
	Percentage int `json:"percentage" mapstructure:"percentage"`
}

// RuleID is the machine-readable identifier recorded on evaluations,
// e.g. DR15_30MIN_50PCT.
func (b Band) RuleID(s Scheme) string {
	return fmt.Sprintf("%s_%dMIN_%dPCT", s, b.Threshold, b.Percentage)
}

// Range is the min/max view of a band. Max is exclusive; nil means unbounded.
type Range struct {
	Min        int
	Max        *int
	Percentage int
}

// Contains reports whether delay falls inside the range.
func (r Range) Contains(delay int) bool {
	if delay < r.Min {
		return false
	}
	return r.Max == nil || delay < *r.Max
}

// Table is a validated, threshold-sorted band table for one scheme. Tables are
// immutable after construction and safe for concurrent use.
type Table struct {
	scheme Scheme
	bands  []Band
}

// NewTable validates bands and builds a table. Duplicate thresholds are a
// reference-data error and are rejected here rather than at evaluation time.
func NewTable(scheme Scheme, bands []Band) (*Table, error) {
	if !scheme.IsValid() {
		return nil, fmt.Errorf("%w: scheme %d", ErrInvalidBand, scheme)
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, scheme)
	}

	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Threshold < sorted[j].Threshold })

	for i, b := range sorted {
		if b.Threshold < 0 {
			return nil, fmt.Errorf("%w: %s threshold %d is negative", ErrInvalidBand, scheme, b.Threshold)
		}
		if b.Percentage < 0 || b.Percentage > 100 {
			return nil, fmt.Errorf("%w: %s percentage %d outside 0..100", ErrInvalidBand, scheme, b.Percentage)
		}
		if i > 0 && sorted[i-1].Threshold == b.Threshold {
			return nil, fmt.Errorf("%w: %s %d minutes", ErrDuplicateThreshold, scheme, b.Threshold)
		}
	}
	return &Table{scheme: scheme, bands: sorted}, nil
}

// DefaultTable returns the statutory table for scheme. It panics on an
// invalid scheme because the default tables are compile-time constants.
func DefaultTable(scheme Scheme) *Table {
	t, err := NewTable(scheme, scheme.DefaultBands())
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Scheme() Scheme {
	return t.scheme
}

// Bands returns a copy of the bands in ascending threshold order.
func (t *Table) Bands() []Band {
	out := make([]Band, len(t.bands))
	copy(out, t.bands)
	return out
}

// LowestThreshold is the smallest delay that pays under this table.
func (t *Table) LowestThreshold() int {
	return t.bands[0].Threshold
}

// Resolve returns the band with the largest threshold <= delayMinutes.
// ok is false when the delay is below the lowest threshold. The caller is
// responsible for clamping early arrivals to zero.
func (t *Table) Resolve(delayMinutes int) (band Band, ok bool) {
	// first index whose threshold exceeds the delay
	i := sort.Search(len(t.bands), func(i int) bool { return t.bands[i].Threshold > delayMinutes })
	if i == 0 {
		return Band{}, false
	}
	return t.bands[i-1], true
}

// Ranges converts the threshold table into its equivalent min/max ranges.
func (t *Table) Ranges() []Range {
	out := make([]Range, len(t.bands))
	for i, b := range t.bands {
		r := Range{Min: b.Threshold, Percentage: b.Percentage}
		if i+1 < len(t.bands) {
			next := t.bands[i+1].Threshold
			r.Max = &next
		}
		out[i] = r
	}
	return out
}

// Amount applies percentage to a fare in minor units, rounding down.
func Amount(farePence int64, percentage int) int64 {
	if farePence <= 0 || percentage <= 0 {
		return 0
	}
	return farePence * int64(percentage) / 100
}
