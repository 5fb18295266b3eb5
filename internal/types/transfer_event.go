package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// TransferEvent is the settlement notification emitted by the base ledger for
// every transfer. Balances are the post-transfer ledger balances of the
// accounts the transfer touched; Round is the opaque monotonic identifier of
// the settlement unit the transfer was committed in.
type TransferEvent struct {
	EventID          string      `json:"event_id"`
	Sender           string      `json:"sender"`
	Recipient        string      `json:"recipient"`
	Amount           sdkmath.Int `json:"amount"`
	SenderBalance    sdkmath.Int `json:"sender_balance"`
	RecipientBalance sdkmath.Int `json:"recipient_balance"`
	CollectorBalance sdkmath.Int `json:"collector_balance"`
	ObservedPriceE18 sdkmath.Int `json:"observed_price_e18"`
	Timestamp        uint64      `json:"timestamp"`
	Round            uint64      `json:"round"`

	// ScheduleVersion is the schedule table version the ledger charged the
	// transfer under; zero means the version current at settlement.
	ScheduleVersion uint64 `json:"schedule_version,omitempty"`
}

func (e *TransferEvent) Validate() error {
	if e.Sender == "" || e.Recipient == "" {
		return fmt.Errorf("transfer event %s is missing sender or recipient", e.EventID)
	}
	if e.Amount.IsNil() || e.Amount.IsNegative() {
		return fmt.Errorf("transfer event %s has invalid amount", e.EventID)
	}
	for _, balance := range []sdkmath.Int{e.SenderBalance, e.RecipientBalance, e.CollectorBalance} {
		if balance.IsNil() || balance.IsNegative() {
			return fmt.Errorf("transfer event %s has invalid balance", e.EventID)
		}
	}
	if e.ObservedPriceE18.IsNil() || e.ObservedPriceE18.IsNegative() {
		return fmt.Errorf("transfer event %s has invalid observed price", e.EventID)
	}
	return nil
}
