package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func launchBrackets(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable([]TaxBracket{
		{FromSeconds: 0, ToSeconds: 2592000, TaxRate: 30, PreScaling: 100, PostScaling: 100},
		{FromSeconds: 2592000, ToSeconds: 5184000, TaxRate: 10, PreScaling: 100, PostScaling: 100},
		{FromSeconds: 5184000, ToSeconds: 7776000, TaxRate: 5, PreScaling: 100, PostScaling: 100},
	})
	require.NoError(t, err)
	return table
}

func TestActiveBracket(t *testing.T) {
	table := launchBrackets(t)

	tests := []struct {
		name     string
		elapsed  uint64
		wantRate uint32
	}{
		{name: "launch second", elapsed: 0, wantRate: 30},
		{name: "inside first window", elapsed: 1000, wantRate: 30},
		{name: "last second of first window", elapsed: 2591999, wantRate: 30},
		{name: "first second of second window", elapsed: 2592000, wantRate: 10},
		{name: "inside third window", elapsed: 6000000, wantRate: 5},
		{name: "schedule holds last rate after expiry", elapsed: 90000000, wantRate: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantRate, table.ActiveBracket(tt.elapsed).TaxRate)
		})
	}
}

func TestActiveBracketStableWithinWindow(t *testing.T) {
	table := launchBrackets(t)

	// two elapsed times in the same window must resolve to the same bracket
	first := table.ActiveBracket(10)
	second := table.ActiveBracket(2000000)
	assert.Equal(t, first, second)
}

func TestActiveBracketSparseSchedule(t *testing.T) {
	table, err := NewTable([]TaxBracket{
		{FromSeconds: 0, ToSeconds: 100, TaxRate: 30, PreScaling: 100, PostScaling: 100},
		{FromSeconds: 500, ToSeconds: 600, TaxRate: 10, PreScaling: 100, PostScaling: 100},
	})
	require.NoError(t, err)

	// a gap falls back to the last bracket whose window has already closed
	assert.Equal(t, uint32(30), table.ActiveBracket(300).TaxRate)
	assert.Equal(t, uint32(10), table.ActiveBracket(600).TaxRate)
}

func TestOverlappingWindowsRejected(t *testing.T) {
	t.Run("new table", func(t *testing.T) {
		_, err := NewTable([]TaxBracket{
			{FromSeconds: 0, ToSeconds: 100, TaxRate: 10, PreScaling: 100, PostScaling: 100},
			{FromSeconds: 50, ToSeconds: 150, TaxRate: 20, PreScaling: 100, PostScaling: 100},
		})
		require.ErrorIs(t, err, ErrOrderingViolation)
	})

	t.Run("administrative update", func(t *testing.T) {
		table := launchBrackets(t)
		_, err := table.WithBracket(1, TaxBracket{
			FromSeconds: 2591999, ToSeconds: 5184000, TaxRate: 10, PreScaling: 100, PostScaling: 100,
		})
		require.ErrorIs(t, err, ErrOrderingViolation)
	})

	t.Run("touching windows are fine", func(t *testing.T) {
		_, err := NewTable([]TaxBracket{
			{FromSeconds: 0, ToSeconds: 100, TaxRate: 10, PreScaling: 100, PostScaling: 100},
			{FromSeconds: 100, ToSeconds: 200, TaxRate: 20, PreScaling: 100, PostScaling: 100},
		})
		require.NoError(t, err)
	})
}

func TestActiveBracketEmptyTable(t *testing.T) {
	table, err := NewTable(nil)
	require.NoError(t, err)

	bracket := table.ActiveBracket(12345)
	assert.Zero(t, bracket.TaxRate)
	assert.Equal(t, uint32(RateDenominator), bracket.PreScaling)
	assert.Equal(t, uint32(RateDenominator), bracket.PostScaling)
}

func TestMaxBracket(t *testing.T) {
	table := launchBrackets(t)
	assert.Equal(t, uint32(30), table.MaxBracket().TaxRate)
}

func TestWithBracket(t *testing.T) {
	table := launchBrackets(t)

	t.Run("append", func(t *testing.T) {
		next, err := table.WithBracket(3, TaxBracket{
			FromSeconds: 7776000, ToSeconds: 10368000, TaxRate: 2, PreScaling: 100, PostScaling: 100,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, next.MaxIndex())
		assert.Equal(t, table.Version()+1, next.Version())
		// the receiver is untouched
		assert.Equal(t, 2, table.MaxIndex())
	})

	t.Run("replace", func(t *testing.T) {
		next, err := table.WithBracket(1, TaxBracket{
			FromSeconds: 2592000, ToSeconds: 5184000, TaxRate: 15, PreScaling: 100, PostScaling: 100,
		})
		require.NoError(t, err)
		assert.Equal(t, uint32(15), next.ActiveBracket(3000000).TaxRate)
	})

	t.Run("ordering violation", func(t *testing.T) {
		_, err := table.WithBracket(2, TaxBracket{
			FromSeconds: 0, ToSeconds: 100, TaxRate: 1, PreScaling: 100, PostScaling: 100,
		})
		require.ErrorIs(t, err, ErrOrderingViolation)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := table.WithBracket(7, TaxBracket{
			FromSeconds: 0, ToSeconds: 100, TaxRate: 1, PreScaling: 100, PostScaling: 100,
		})
		require.ErrorIs(t, err, ErrOrderingViolation)
	})

	t.Run("empty window", func(t *testing.T) {
		_, err := table.WithBracket(0, TaxBracket{
			FromSeconds: 10, ToSeconds: 10, TaxRate: 1, PreScaling: 100, PostScaling: 100,
		})
		require.ErrorIs(t, err, ErrOrderingViolation)
	})

	t.Run("rate above cap", func(t *testing.T) {
		_, err := table.WithBracket(0, TaxBracket{
			FromSeconds: 0, ToSeconds: 100, TaxRate: 101, PreScaling: 100, PostScaling: 100,
		})
		require.ErrorIs(t, err, ErrOrderingViolation)
	})
}
