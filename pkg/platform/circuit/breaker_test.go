package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBreakerIsClosed(t *testing.T) {
	b := New("refdata-redis")
	assert.False(t, b.IsOpen())
	assert.Equal(t, "closed", b.State().String())
	assert.Equal(t, "refdata-redis", b.Name())
}

func TestBreakerOpensOnConsecutiveFailures(t *testing.T) {
	b := New("cache", WithFailureThreshold(3))

	for i := 1; i < 3; i++ {
		fallback, change := b.RecordFailure()
		require.False(t, fallback, "failure %d should not open", i)
		require.False(t, change.Opened)
	}
	fallback, change := b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)
	assert.Equal(t, "open", b.State().String())

	// Already open: fallback without another transition.
	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.False(t, change.Opened)
}

func TestBreakerInterleavedResults(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		success  int
		steps    string // f = failure, s = success
		wantOpen bool
	}{
		{"success clears failure streak", 3, 1, "ffsff", false},
		{"streak reaches threshold", 3, 1, "ffsfff", true},
		{"probes close an open circuit", 1, 2, "fss", false},
		{"one probe is not enough", 1, 2, "fs", true},
		{"failure restarts probe count", 1, 3, "fssfss", true},
		{"three fresh probes close", 1, 3, "fssfsss", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("cache", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.success))
			for _, step := range tt.steps {
				if step == 'f' {
					b.RecordFailure()
				} else {
					b.RecordSuccess()
				}
			}
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestBreakerReportsClose(t *testing.T) {
	b := New("cache", WithFailureThreshold(1), WithSuccessThreshold(1))
	b.RecordFailure()

	primary, change := b.RecordSuccess()
	assert.True(t, primary)
	assert.True(t, change.Closed)

	primary, change = b.RecordSuccess()
	assert.True(t, primary)
	assert.False(t, change.Closed)
}

func TestBreakerReset(t *testing.T) {
	b := New("cache", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
}

func TestInvalidThresholdsKeepDefaults(t *testing.T) {
	b := New("cache", WithFailureThreshold(0), WithSuccessThreshold(-1))
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen())
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}
