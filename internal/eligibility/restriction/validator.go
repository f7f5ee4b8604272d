// Package restriction decides whether a ticket's restriction codes permit
// travel at a given date and departure time.
package restriction

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	dErrors "github.com/loloatlo/railrepay-eligibility-engine/pkg/domain-errors"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/strings"
)

const dateLayout = "2006-01-02"

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
)

type rule int

const (
	ruleWeekendOnly rule = iota + 1
	ruleOffPeak
	ruleAnytime
)

var rules = map[string]rule{
	"WEEKEND_ONLY":   ruleWeekendOnly,
	"WE":             ruleWeekendOnly,
	"OFF_PEAK":       ruleOffPeak,
	"OP":             ruleOffPeak,
	"SUPER_OFF_PEAK": ruleOffPeak,
	"SOP":            ruleOffPeak,
	"RE":             ruleOffPeak,
	"1F":             ruleOffPeak,
	"2B":             ruleOffPeak,
	"ANYTIME":        ruleAnytime,
	"AT":             ruleAnytime,
}

// Result is the outcome of validating a set of restriction codes.
type Result struct {
	Valid        bool
	CodesChecked []string
	BlockingCode string
	Reason       string
	Notes        []string
}

// Validator checks restriction codes against a holiday calendar and peak windows.
type Validator struct {
	holidays map[string]struct{}
	peaks    []Window
}

type Option func(*Validator)

// WithHolidays replaces the holiday calendar.
func WithHolidays(dates ...time.Time) Option {
	return func(v *Validator) {
		v.holidays = make(map[string]struct{}, len(dates))
		for _, d := range dates {
			v.holidays[d.Format(dateLayout)] = struct{}{}
		}
	}
}

// WithPeakWindows replaces the weekday peak windows.
func WithPeakWindows(windows ...Window) Option {
	return func(v *Validator) {
		v.peaks = windows
	}
}

func New(opts ...Option) *Validator {
	v := &Validator{peaks: DefaultPeakWindows()}
	WithHolidays(DefaultHolidays()...)(v)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks codes in the order supplied and stops at the first one that
// blocks travel. Malformed dates or times are validation errors even when the
// code list is empty.
func (v *Validator) Validate(codes []string, journeyDate, departureTime string) (Result, error) {
	date, err := ParseDate(journeyDate)
	if err != nil {
		return Result{}, err
	}
	minute, err := parseClock(departureTime)
	if err != nil {
		return Result{}, err
	}

	res := Result{Valid: true, CodesChecked: []string{}}
	weekend := v.IsWeekendOrHoliday(date)
	peak := !weekend && v.inPeak(minute)

	for _, code := range strings.NormalizeCodes(codes) {
		res.CodesChecked = append(res.CodesChecked, code)
		switch rules[code] {
		case ruleWeekendOnly:
			if !weekend {
				return blocked(res, code, fmt.Sprintf("%s ticket is only valid on weekends and bank holidays; %s is a %s", code, journeyDate, date.Weekday())), nil
			}
		case ruleOffPeak:
			if peak {
				return blocked(res, code, fmt.Sprintf("%s ticket is not valid for a %s weekday peak departure", code, departureTime)), nil
			}
		case ruleAnytime:
		default:
			res.Notes = append(res.Notes, fmt.Sprintf("restriction code %s not recognised; treated as unrestricted", code))
		}
	}
	return res, nil
}

// IsWeekendOrHoliday reports whether date falls on a Saturday, Sunday or a
// designated holiday.
func (v *Validator) IsWeekendOrHoliday(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	_, ok := v.holidays[date.Format(dateLayout)]
	return ok
}

func (v *Validator) inPeak(minute int) bool {
	for _, w := range v.peaks {
		if w.contains(minute) {
			return true
		}
	}
	return false
}

func blocked(res Result, code, reason string) Result {
	res.Valid = false
	res.BlockingCode = code
	res.Reason = reason
	return res
}

// ParseDate accepts only real calendar dates in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("journey_date %q must be YYYY-MM-DD", s))
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("journey_date %q is not a calendar date", s))
	}
	return t, nil
}

func parseClock(s string) (int, error) {
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("departure_time %q must be HH:MM on a 24-hour clock", s))
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return h*60 + mm, nil
}
