package compensation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_BoundaryMinutes(t *testing.T) {
	cases := []struct {
		scheme  Scheme
		delay   int
		ok      bool
		percent int
	}{
		{SchemeDR15, 0, false, 0},
		{SchemeDR15, 14, false, 0},
		{SchemeDR15, 15, true, 25},
		{SchemeDR15, 16, true, 25},
		{SchemeDR15, 29, true, 25},
		{SchemeDR15, 30, true, 50},
		{SchemeDR15, 31, true, 50},
		{SchemeDR15, 59, true, 50},
		{SchemeDR15, 60, true, 100},
		{SchemeDR15, 61, true, 100},
		{SchemeDR15, 119, true, 100},
		{SchemeDR15, 120, true, 100},
		{SchemeDR15, 121, true, 100},
		{SchemeDR30, 15, false, 0},
		{SchemeDR30, 29, false, 0},
		{SchemeDR30, 30, true, 50},
		{SchemeDR30, 59, true, 50},
		{SchemeDR30, 60, true, 100},
		{SchemeDR30, 121, true, 100},
	}
	for _, tc := range cases {
		band, ok := DefaultTable(tc.scheme).Resolve(tc.delay)
		assert.Equal(t, tc.ok, ok, "%s at %d minutes", tc.scheme, tc.delay)
		assert.Equal(t, tc.percent, band.Percentage, "%s at %d minutes", tc.scheme, tc.delay)
	}
}

func TestResolve_BelowLowestThresholdNeverPays(t *testing.T) {
	for _, scheme := range Schemes() {
		table := DefaultTable(scheme)
		for delay := 0; delay < table.LowestThreshold(); delay++ {
			_, ok := table.Resolve(delay)
			assert.False(t, ok, "%s should not pay at %d minutes", scheme, delay)
		}
	}
}

func TestResolve_AboveTopBandKeepsTopPercentage(t *testing.T) {
	for _, scheme := range Schemes() {
		table := DefaultTable(scheme)
		bands := table.Bands()
		top := bands[len(bands)-1]
		for _, delay := range []int{top.Threshold, top.Threshold + 1, top.Threshold * 3, 10_000} {
			band, ok := table.Resolve(delay)
			require.True(t, ok)
			assert.Equal(t, top.Percentage, band.Percentage, "%s at %d minutes", scheme, delay)
		}
	}
}

// The threshold-exact table and its derived min/max ranges must agree on every
// minute, including each band edge.
func TestThresholdAndRangeRepresentationsAgree(t *testing.T) {
	boundaries := []int{14, 15, 16, 29, 30, 31, 59, 60, 61, 119, 120, 121}
	for _, scheme := range Schemes() {
		table := DefaultTable(scheme)
		ranges := table.Ranges()

		check := func(delay int) {
			band, ok := table.Resolve(delay)
			var matched []Range
			for _, r := range ranges {
				if r.Contains(delay) {
					matched = append(matched, r)
				}
			}
			require.LessOrEqual(t, len(matched), 1, "ranges overlap at %d", delay)
			if !ok {
				assert.Empty(t, matched, "%s at %d", scheme, delay)
				return
			}
			require.Len(t, matched, 1, "%s at %d", scheme, delay)
			assert.Equal(t, band.Percentage, matched[0].Percentage, "%s at %d", scheme, delay)
		}

		for _, delay := range boundaries {
			check(delay)
		}
		for delay := 0; delay <= 240; delay++ {
			check(delay)
		}
	}
}

func TestNewTable_RejectsBadReferenceData(t *testing.T) {
	t.Run("duplicate threshold", func(t *testing.T) {
		_, err := NewTable(SchemeDR15, []Band{{15, 25}, {30, 50}, {15, 40}})
		assert.ErrorIs(t, err, ErrDuplicateThreshold)
	})
	t.Run("percentage above 100", func(t *testing.T) {
		_, err := NewTable(SchemeDR30, []Band{{30, 150}})
		assert.ErrorIs(t, err, ErrInvalidBand)
	})
	t.Run("negative threshold", func(t *testing.T) {
		_, err := NewTable(SchemeDR30, []Band{{-1, 10}})
		assert.ErrorIs(t, err, ErrInvalidBand)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := NewTable(SchemeDR30, nil)
		assert.ErrorIs(t, err, ErrEmptyTable)
	})
	t.Run("unsorted input is sorted", func(t *testing.T) {
		table, err := NewTable(SchemeDR15, []Band{{60, 100}, {15, 25}, {30, 50}})
		require.NoError(t, err)
		assert.Equal(t, []Band{{15, 25}, {30, 50}, {60, 100}}, table.Bands())
	})
}

func TestAmountRoundsDown(t *testing.T) {
	assert.Equal(t, int64(499), Amount(1999, 25))
	assert.Equal(t, int64(999), Amount(1999, 50))
	assert.Equal(t, int64(1999), Amount(1999, 100))
	assert.Equal(t, int64(0), Amount(3, 25))
	assert.Equal(t, int64(0), Amount(0, 100))
}

func TestRuleID(t *testing.T) {
	assert.Equal(t, "DR15_15MIN_25PCT", Band{15, 25}.RuleID(SchemeDR15))
	assert.Equal(t, "DR30_60MIN_100PCT", Band{60, 100}.RuleID(SchemeDR30))
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme(" dr30 ")
	require.NoError(t, err)
	assert.Equal(t, SchemeDR30, s)
	assert.Equal(t, 30, s.MinimumThreshold())

	_, err = ParseScheme("DR45")
	assert.Error(t, err)

	var zero Scheme
	assert.False(t, zero.IsValid())
	_, err = zero.MarshalText()
	assert.Error(t, err)
}
