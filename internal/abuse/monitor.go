package abuse

import (
	"sync"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

// Status of an account within the current settlement round.
type Status string

const (
	Allowed Status = "ALLOWED"
	Flagged Status = "FLAGGED"
)

func (s Status) String() string {
	return string(s)
}

// Monitor tracks the most recent settlement round each account was active in.
// An account observed more than once within the same round is flagged as a
// flashloan-style round-trip. The round identifier is opaque and supplied by
// the caller; the monitor is pure bookkeeping over it.
type Monitor struct {
	mu              sync.Mutex
	lastActiveRound map[types.Account]uint64
}

func NewMonitor() *Monitor {
	return &Monitor{
		lastActiveRound: make(map[types.Account]uint64),
	}
}

// Check reports whether the account has already been active in currentRound.
func (m *Monitor) Check(account types.Account, currentRound uint64) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.lastActiveRound[account]; ok && last == currentRound {
		return Flagged
	}
	return Allowed
}

// Record marks the account active in currentRound. Idempotent per round, O(1).
func (m *Monitor) Record(account types.Account, currentRound uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastActiveRound[account] = currentRound
}

// Fingerprint returns the last recorded round for an account, if any. Used to
// mirror fingerprints into durable storage.
func (m *Monitor) Fingerprint(account types.Account) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	round, ok := m.lastActiveRound[account]
	return round, ok
}

// Restore seeds the monitor from durable state at bootstrap.
func (m *Monitor) Restore(fingerprints map[types.Account]uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for account, round := range fingerprints {
		m.lastActiveRound[account] = round
	}
}
