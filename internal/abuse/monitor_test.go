package abuse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

func TestMonitor(t *testing.T) {
	const bob = types.Account("bob")

	t.Run("unknown account is allowed", func(t *testing.T) {
		m := NewMonitor()
		assert.Equal(t, Allowed, m.Check(bob, 7))
	})

	t.Run("second touch in the same round is flagged", func(t *testing.T) {
		m := NewMonitor()
		m.Record(bob, 7)
		assert.Equal(t, Flagged, m.Check(bob, 7))
	})

	t.Run("next round is allowed again", func(t *testing.T) {
		m := NewMonitor()
		m.Record(bob, 7)
		assert.Equal(t, Allowed, m.Check(bob, 8))
	})

	t.Run("record is idempotent per round", func(t *testing.T) {
		m := NewMonitor()
		m.Record(bob, 7)
		m.Record(bob, 7)
		assert.Equal(t, Flagged, m.Check(bob, 7))

		round, ok := m.Fingerprint(bob)
		assert.True(t, ok)
		assert.Equal(t, uint64(7), round)
	})

	t.Run("restore seeds durable fingerprints", func(t *testing.T) {
		m := NewMonitor()
		m.Restore(map[types.Account]uint64{bob: 42})
		assert.Equal(t, Flagged, m.Check(bob, 42))
		assert.Equal(t, Allowed, m.Check(bob, 43))
	})
}
