package restriction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/loloatlo/railrepay-eligibility-engine/pkg/domain-errors"
)

const (
	monday   = "2025-06-02"
	saturday = "2025-06-07"
	easter   = "2025-04-21"
)

func TestValidate_OffPeakAroundEveningPeak(t *testing.T) {
	v := New()

	cases := []struct {
		departure string
		valid     bool
	}{
		{"15:59", true},
		{"16:00", false},
		{"18:59", false},
		{"19:00", true},
	}
	for _, tc := range cases {
		t.Run(tc.departure, func(t *testing.T) {
			res, err := v.Validate([]string{"OFF_PEAK"}, monday, tc.departure)
			require.NoError(t, err)
			assert.Equal(t, tc.valid, res.Valid)
			if !tc.valid {
				assert.Equal(t, "OFF_PEAK", res.BlockingCode)
				assert.NotEmpty(t, res.Reason)
			}
		})
	}
}

func TestValidate_MorningPeakBoundaries(t *testing.T) {
	v := New()

	for departure, valid := range map[string]bool{"06:29": true, "06:30": false, "09:29": false, "09:30": true} {
		res, err := v.Validate([]string{"SOP"}, monday, departure)
		require.NoError(t, err)
		assert.Equal(t, valid, res.Valid, departure)
	}
}

func TestValidate_PeakDoesNotApplyOnWeekendsOrHolidays(t *testing.T) {
	v := New()

	for _, date := range []string{saturday, easter} {
		res, err := v.Validate([]string{"OP", "RE"}, date, "17:30")
		require.NoError(t, err)
		assert.True(t, res.Valid, date)
	}
}

func TestValidate_WeekendOnly(t *testing.T) {
	v := New()

	res, err := v.Validate([]string{"we"}, monday, "12:00")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "WE", res.BlockingCode)

	res, err = v.Validate([]string{"WEEKEND_ONLY"}, easter, "12:00")
	require.NoError(t, err)
	assert.True(t, res.Valid, "bank holidays count as weekend")
}

func TestValidate_FirstBlockingCodeStopsEvaluation(t *testing.T) {
	v := New()

	res, err := v.Validate([]string{"AT", "WEEKEND_ONLY", "OFF_PEAK", "XYZ"}, monday, "17:00")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "WEEKEND_ONLY", res.BlockingCode)
	assert.Equal(t, []string{"AT", "WEEKEND_ONLY"}, res.CodesChecked)
	assert.Empty(t, res.Notes)
}

func TestValidate_UnknownCodeIsPermissiveWithNote(t *testing.T) {
	v := New()

	res, err := v.Validate([]string{"ZZ"}, monday, "17:00")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	require.Len(t, res.Notes, 1)
	assert.Contains(t, res.Notes[0], "ZZ")
}

func TestValidate_EmptyListIsValid(t *testing.T) {
	res, err := New().Validate(nil, monday, "08:00")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.CodesChecked)
}

func TestValidate_MalformedInput(t *testing.T) {
	v := New()

	cases := []struct {
		name, date, departure string
	}{
		{"non-leap february 29", "2025-02-29", "10:00"},
		{"february 30", "2024-02-30", "10:00"},
		{"month 13", "2025-13-01", "10:00"},
		{"slashes", "2025/06/02", "10:00"},
		{"short year", "25-06-02", "10:00"},
		{"hour 24", monday, "24:00"},
		{"single digit hour", monday, "9:15"},
		{"seconds", monday, "09:15:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Validate([]string{"OP"}, tc.date, tc.departure)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}

	_, err := v.Validate([]string{"OP"}, "2024-02-29", "10:00")
	assert.NoError(t, err, "leap day in a leap year")
}

func TestValidate_InjectedCalendar(t *testing.T) {
	v := New(
		WithHolidays(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)),
		WithPeakWindows(Window{Start: 12 * 60, End: 13 * 60}),
	)

	res, err := v.Validate([]string{"WE"}, monday, "12:30")
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = v.Validate([]string{"OP"}, "2025-06-03", "12:30")
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = v.Validate([]string{"OP"}, "2025-06-03", "17:00")
	require.NoError(t, err)
	assert.True(t, res.Valid)
}
