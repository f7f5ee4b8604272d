package restriction

import "time"

// Window is a half-open [Start, End) span of minutes since midnight.
type Window struct {
	Start int
	End   int
}

func (w Window) contains(minute int) bool {
	return minute >= w.Start && minute < w.End
}

// DefaultPeakWindows are the weekday morning and evening peaks.
func DefaultPeakWindows() []Window {
	return []Window{
		{Start: 6*60 + 30, End: 9*60 + 30},
		{Start: 16 * 60, End: 19 * 60},
	}
}

// bankHolidays is the England and Wales calendar for 2024 to 2027.
var bankHolidays = []string{
	"2024-01-01", "2024-03-29", "2024-04-01", "2024-05-06", "2024-05-27", "2024-08-26", "2024-12-25", "2024-12-26",
	"2025-01-01", "2025-04-18", "2025-04-21", "2025-05-05", "2025-05-26", "2025-08-25", "2025-12-25", "2025-12-26",
	"2026-01-01", "2026-04-03", "2026-04-06", "2026-05-04", "2026-05-25", "2026-08-31", "2026-12-25", "2026-12-28",
	"2027-01-01", "2027-03-26", "2027-03-29", "2027-05-03", "2027-05-31", "2027-08-30", "2027-12-27", "2027-12-28",
}

// DefaultHolidays returns the built-in bank holiday calendar.
func DefaultHolidays() []time.Time {
	out := make([]time.Time, 0, len(bankHolidays))
	for _, d := range bankHolidays {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			panic("restriction: bad holiday " + d)
		}
		out = append(out, t)
	}
	return out
}
