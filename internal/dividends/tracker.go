package dividends

import (
	"errors"
	"math/big"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

var (
	// ErrNoEligibleSupply is returned by Distribute when no holder is above
	// the minimum balance. The caller must hold and retry the amount, never
	// drop it.
	ErrNoEligibleSupply = errors.New("no eligible supply to distribute to")

	// ErrNothingToWithdraw is informational: the account has no accrued
	// dividends to pay out.
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
)

// magnitude is the fixed-point scale of the magnified-dividend-per-share
// accumulator. A power of two bounds the rounding loss of a distribution to
// totalEligibleSupply / 2^128 base units.
var magnitude = new(big.Int).Lsh(big.NewInt(1), 128)

// HolderState is the externally visible dividend state of one account.
type HolderState struct {
	Balance            sdkmath.Int
	WithdrawnDividends sdkmath.Int
	// Corrections carries the signed magnified adjustment that keeps accrued
	// dividends fixed across balance changes (share changes apply forward
	// only, never retroactively).
	Corrections   *big.Int
	LastClaimTime uint64
}

type holder struct {
	balance       sdkmath.Int
	withdrawn     sdkmath.Int
	corrections   *big.Int
	lastClaimTime uint64
}

// Tracker maintains magnified per-share dividend accounting over the eligible
// holder set. All operations are short and non-blocking; a single mutex
// serializes balance accrual and withdrawal so no two settlement units
// touching the same account's dividend state can interleave.
type Tracker struct {
	mu sync.Mutex

	magnifiedPerShare   *big.Int
	totalEligibleSupply sdkmath.Int
	totalDistributed    sdkmath.Int
	minimumBalance      sdkmath.Int

	excluded map[types.Account]struct{}
	holders  map[types.Account]*holder
}

func NewTracker(minimumBalanceForDividends sdkmath.Int) *Tracker {
	return &Tracker{
		magnifiedPerShare:   new(big.Int),
		totalEligibleSupply: sdkmath.ZeroInt(),
		totalDistributed:    sdkmath.ZeroInt(),
		minimumBalance:      minimumBalanceForDividends,
		excluded:            make(map[types.Account]struct{}),
		holders:             make(map[types.Account]*holder),
	}
}

func (t *Tracker) holderFor(account types.Account) *holder {
	h, ok := t.holders[account]
	if !ok {
		h = &holder{
			balance:     sdkmath.ZeroInt(),
			withdrawn:   sdkmath.ZeroInt(),
			corrections: new(big.Int),
		}
		t.holders[account] = h
	}
	return h
}

// setBalance moves a holder to a new dividend-accounting balance. The
// magnified correction offsets the accumulator so the holder's accrued
// dividends are unchanged by the move; only future accrual follows the new
// share.
func (t *Tracker) setBalance(h *holder, newBalance sdkmath.Int) {
	if h.balance.Equal(newBalance) {
		return
	}
	delta := newBalance.Sub(h.balance)
	h.corrections.Sub(h.corrections, new(big.Int).Mul(t.magnifiedPerShare, delta.BigInt()))
	t.totalEligibleSupply = t.totalEligibleSupply.Add(delta)
	h.balance = newBalance
}

// SetExcluded administratively adds or removes an account from the exclusion
// set. Exclusion removes the account from the share base and forfeits its
// unclaimed accrual; the withdrawn baseline stays fixed so pre-exclusion
// accrual cannot be claimed later. A re-included account starts accruing
// again from its next balance change.
func (t *Tracker) SetExcluded(account types.Account, excluded bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !excluded {
		delete(t.excluded, account)
		return
	}
	if _, already := t.excluded[account]; already {
		return
	}
	t.excluded[account] = struct{}{}

	h, ok := t.holders[account]
	if !ok {
		return
	}
	t.setBalance(h, sdkmath.ZeroInt())
	// forfeit: pin accrued-to-date to exactly the withdrawn baseline
	h.corrections.Mul(h.withdrawn.BigInt(), magnitude)
}

func (t *Tracker) IsExcluded(account types.Account) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.excluded[account]
	return ok
}

// OnBalanceChanged mirrors a finalized ledger balance into the dividend
// accounting. Excluded accounts and accounts below the minimum threshold hold
// an accounting balance of zero regardless of their real ledger balance.
func (t *Tracker) OnBalanceChanged(account types.Account, newBalance sdkmath.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, excluded := t.excluded[account]; excluded {
		return
	}

	h := t.holderFor(account)
	if newBalance.LT(t.minimumBalance) {
		t.setBalance(h, sdkmath.ZeroInt())
		return
	}
	t.setBalance(h, newBalance)
}

// Distribute folds a new reward amount into the magnified per-share
// accumulator in O(1), without touching any holder record.
func (t *Tracker) Distribute(amount sdkmath.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if amount.IsNil() || !amount.IsPositive() {
		return nil
	}
	if t.totalEligibleSupply.IsZero() {
		return ErrNoEligibleSupply
	}

	increment := new(big.Int).Mul(amount.BigInt(), magnitude)
	increment.Quo(increment, t.totalEligibleSupply.BigInt())
	t.magnifiedPerShare.Add(t.magnifiedPerShare, increment)
	t.totalDistributed = t.totalDistributed.Add(amount)
	return nil
}

// WithdrawableOf returns the account's accrued-but-unwithdrawn dividends. The
// result is never negative; a negative intermediate indicates an invariant
// violation and is logged as an internal error before clamping.
func (t *Tracker) WithdrawableOf(account types.Account) sdkmath.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.withdrawableOf(account)
}

func (t *Tracker) withdrawableOf(account types.Account) sdkmath.Int {
	h, ok := t.holders[account]
	if !ok {
		return sdkmath.ZeroInt()
	}

	accumulated := new(big.Int).Mul(t.magnifiedPerShare, h.balance.BigInt())
	accumulated.Add(accumulated, h.corrections)
	accumulated.Quo(accumulated, magnitude)
	accumulated.Sub(accumulated, h.withdrawn.BigInt())

	if accumulated.Sign() < 0 {
		log.Error().
			Str("account", account.String()).
			Str("withdrawable", accumulated.String()).
			Msg("dividend accounting invariant violated: negative withdrawable")
		return sdkmath.ZeroInt()
	}
	return sdkmath.NewIntFromBigInt(accumulated)
}

// Withdraw pays out the account's withdrawable dividends exactly once and
// records the claim time.
func (t *Tracker) Withdraw(account types.Account, now uint64) (sdkmath.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	amount := t.withdrawableOf(account)
	if amount.IsZero() {
		return sdkmath.ZeroInt(), ErrNothingToWithdraw
	}

	h := t.holders[account]
	h.withdrawn = h.withdrawn.Add(amount)
	h.lastClaimTime = now
	return amount, nil
}

// SetMinimumBalance updates the eligibility threshold. The new threshold
// applies to subsequent balance changes; existing accounting balances are not
// re-evaluated until their next OnBalanceChanged.
func (t *Tracker) SetMinimumBalance(minimum sdkmath.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.minimumBalance = minimum
}

func (t *Tracker) MinimumBalance() sdkmath.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.minimumBalance
}

func (t *Tracker) TotalEligibleSupply() sdkmath.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.totalEligibleSupply
}

func (t *Tracker) TotalDistributed() sdkmath.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.totalDistributed
}

// MagnifiedPerShare returns a copy of the accumulator, for persistence.
func (t *Tracker) MagnifiedPerShare() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return new(big.Int).Set(t.magnifiedPerShare)
}

// HolderOf returns a copy of the account's dividend state.
func (t *Tracker) HolderOf(account types.Account) (HolderState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.holders[account]
	if !ok {
		return HolderState{}, false
	}
	return HolderState{
		Balance:            h.balance,
		WithdrawnDividends: h.withdrawn,
		Corrections:        new(big.Int).Set(h.corrections),
		LastClaimTime:      h.lastClaimTime,
	}, true
}

// ExcludedAccounts returns the exclusion set, for persistence.
func (t *Tracker) ExcludedAccounts() []types.Account {
	t.mu.Lock()
	defer t.mu.Unlock()

	accounts := make([]types.Account, 0, len(t.excluded))
	for account := range t.excluded {
		accounts = append(accounts, account)
	}
	return accounts
}

// RestoreHolder seeds one holder record from durable state at bootstrap. The
// balance re-enters the eligible supply directly, without correction
// adjustment, because the stored corrections already encode it.
func (t *Tracker) RestoreHolder(account types.Account, state HolderState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	corrections := new(big.Int)
	if state.Corrections != nil {
		corrections.Set(state.Corrections)
	}
	t.holders[account] = &holder{
		balance:       state.Balance,
		withdrawn:     state.WithdrawnDividends,
		corrections:   corrections,
		lastClaimTime: state.LastClaimTime,
	}
	t.totalEligibleSupply = t.totalEligibleSupply.Add(state.Balance)
}

// RestoreGlobal seeds the accumulator and distribution total at bootstrap.
func (t *Tracker) RestoreGlobal(magnifiedPerShare *big.Int, totalDistributed sdkmath.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if magnifiedPerShare != nil {
		t.magnifiedPerShare.Set(magnifiedPerShare)
	}
	if !totalDistributed.IsNil() {
		t.totalDistributed = totalDistributed
	}
}
