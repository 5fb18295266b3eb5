package schedule

import (
	"errors"
	"fmt"
)

const (
	// RateDenominator is the scale of TaxRate, PreScaling and PostScaling.
	// Rates are integer percent, matching the on-chain tracker semantics.
	RateDenominator = 100

	// MaxTaxRate caps the effective tax rate at 100%.
	MaxTaxRate = 100
)

// ErrOrderingViolation is returned when an administrative bracket update would
// break the monotonic ordering of the schedule.
var ErrOrderingViolation = errors.New("schedule ordering violation")

// TaxBracket is a time-windowed fee rule keyed by elapsed seconds since
// launch. PreScaling and PostScaling are sequential percentage multipliers
// applied on top of the nominal rate, so an administrator can dampen or
// amplify a bracket without touching the rate itself.
type TaxBracket struct {
	FromSeconds uint64
	ToSeconds   uint64
	TaxRate     uint32
	PreScaling  uint32
	PostScaling uint32
}

func (b TaxBracket) Validate() error {
	if b.FromSeconds >= b.ToSeconds {
		return fmt.Errorf("%w: bracket window [%d, %d) is empty", ErrOrderingViolation, b.FromSeconds, b.ToSeconds)
	}
	if b.TaxRate > MaxTaxRate {
		return fmt.Errorf("%w: tax rate %d exceeds %d", ErrOrderingViolation, b.TaxRate, MaxTaxRate)
	}
	return nil
}

// Contains reports whether elapsed falls within [FromSeconds, ToSeconds).
func (b TaxBracket) Contains(elapsedSeconds uint64) bool {
	return elapsedSeconds >= b.FromSeconds && elapsedSeconds < b.ToSeconds
}

// Table is an ordered, immutable snapshot of tax brackets. Administrative
// updates produce a new Table with a bumped version; the fee engine swaps the
// whole reference atomically so readers never observe a half-updated schedule.
type Table struct {
	version  uint64
	brackets []TaxBracket
}

func NewTable(brackets []TaxBracket) (*Table, error) {
	t := &Table{version: 1, brackets: append([]TaxBracket(nil), brackets...)}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// RestoreTable rebuilds a table at a specific version from durable storage.
func RestoreTable(version uint64, brackets []TaxBracket) (*Table, error) {
	t := &Table{version: version, brackets: append([]TaxBracket(nil), brackets...)}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) validate() error {
	for i, b := range t.brackets {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("bracket %d: %w", i, err)
		}
		if i == 0 {
			continue
		}
		// windows must be disjoint and ascending so at most one bracket is
		// active for any elapsed time
		prev := t.brackets[i-1]
		if b.FromSeconds < prev.ToSeconds {
			return fmt.Errorf("%w: bracket %d window [%d, %d) overlaps bracket %d window [%d, %d)",
				ErrOrderingViolation, i, b.FromSeconds, b.ToSeconds, i-1, prev.FromSeconds, prev.ToSeconds)
		}
	}
	return nil
}

func (t *Table) Version() uint64 {
	return t.version
}

// MaxIndex returns the index of the highest populated slot, or -1 for an
// empty table.
func (t *Table) MaxIndex() int {
	return len(t.brackets) - 1
}

// Brackets returns a copy of the bracket slice.
func (t *Table) Brackets() []TaxBracket {
	return append([]TaxBracket(nil), t.brackets...)
}

// ActiveBracket returns the first bracket whose window contains
// elapsedSeconds. If no window matches, the schedule holds its last rate: the
// bracket with the greatest ToSeconds not after elapsedSeconds wins. An empty
// table (or an elapsed time before every window) yields a zero-tax default.
// The lookup is deterministic and side-effect-free.
func (t *Table) ActiveBracket(elapsedSeconds uint64) TaxBracket {
	var expired *TaxBracket
	for i := range t.brackets {
		b := t.brackets[i]
		if b.Contains(elapsedSeconds) {
			return b
		}
		if b.ToSeconds <= elapsedSeconds && (expired == nil || b.ToSeconds > expired.ToSeconds) {
			expired = &t.brackets[i]
		}
	}
	if expired != nil {
		return *expired
	}
	return zeroBracket(elapsedSeconds)
}

// MaxBracket returns the bracket carrying the highest tax rate, used as the
// punitive rate for flagged same-round round-trips. Later brackets win ties.
func (t *Table) MaxBracket() TaxBracket {
	if len(t.brackets) == 0 {
		return zeroBracket(0)
	}
	best := t.brackets[0]
	for _, b := range t.brackets[1:] {
		if b.TaxRate >= best.TaxRate {
			best = b
		}
	}
	return best
}

// WithBracket returns a copy of the table with the bracket at index replaced,
// or appended when index is one past the highest populated slot. Updates that
// would violate the monotonic ordering are rejected with ErrOrderingViolation
// and leave the receiver untouched.
func (t *Table) WithBracket(index int, bracket TaxBracket) (*Table, error) {
	if index < 0 || index > len(t.brackets) {
		return nil, fmt.Errorf("%w: index %d outside [0, %d]", ErrOrderingViolation, index, len(t.brackets))
	}
	brackets := append([]TaxBracket(nil), t.brackets...)
	if index == len(brackets) {
		brackets = append(brackets, bracket)
	} else {
		brackets[index] = bracket
	}
	next := &Table{version: t.version + 1, brackets: brackets}
	if err := next.validate(); err != nil {
		return nil, err
	}
	return next, nil
}

func zeroBracket(elapsedSeconds uint64) TaxBracket {
	return TaxBracket{
		FromSeconds: elapsedSeconds,
		ToSeconds:   elapsedSeconds + 1,
		TaxRate:     0,
		PreScaling:  RateDenominator,
		PostScaling: RateDenominator,
	}
}
