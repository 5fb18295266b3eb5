package fees

import (
	"errors"

	sdkmath "cosmossdk.io/math"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

var (
	// ErrRefundLocked is returned when a refund is claimed before its
	// unlock time has passed. The caller retries later.
	ErrRefundLocked = errors.New("refund is still locked")

	// ErrNoRefundAvailable is returned when no refund is pending for the
	// account.
	ErrNoRefundAvailable = errors.New("no refund available")
)

// PendingRefund is the per-account record of a detected fee overcharge. At
// most one record is outstanding per account: a fresh overcharge folds into
// the existing record, summing amounts, and the later unlock time wins.
type PendingRefund struct {
	AmountOwed sdkmath.Int
	UnlockTime uint64
}

func (e *Engine) addRefund(account types.Account, amount sdkmath.Int, unlockTime uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, ok := e.refunds[account]
	if !ok {
		e.refunds[account] = &PendingRefund{AmountOwed: amount, UnlockTime: unlockTime}
		return
	}
	existing.AmountOwed = existing.AmountOwed.Add(amount)
	if unlockTime > existing.UnlockTime {
		existing.UnlockTime = unlockTime
	}
}

// ClaimRefund pays out the pending refund exactly once. It fails with
// ErrRefundLocked before the unlock time and ErrNoRefundAvailable when
// nothing is owed; in both failure cases the record is left untouched.
func (e *Engine) ClaimRefund(account types.Account, now uint64) (sdkmath.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending, ok := e.refunds[account]
	if !ok {
		return sdkmath.ZeroInt(), ErrNoRefundAvailable
	}
	if now < pending.UnlockTime {
		return sdkmath.ZeroInt(), ErrRefundLocked
	}

	owed := pending.AmountOwed
	delete(e.refunds, account)
	return owed, nil
}

// PendingRefundOf returns a copy of the account's refund record, if any.
func (e *Engine) PendingRefundOf(account types.Account) (PendingRefund, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending, ok := e.refunds[account]
	if !ok {
		return PendingRefund{}, false
	}
	return *pending, true
}

// RestoreRefund seeds a refund record from durable storage at bootstrap.
func (e *Engine) RestoreRefund(account types.Account, refund PendingRefund) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.refunds[account] = &PendingRefund{
		AmountOwed: refund.AmountOwed,
		UnlockTime: refund.UnlockTime,
	}
}
