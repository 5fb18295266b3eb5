package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db/model"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/fees"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/observability/metrics"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/schedule"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

const (
	persistMaxRetryTimes = 3
	persistRetryInterval = 500 * time.Millisecond
)

// ProcessTransferEvent is the entry point for one settled transfer. Fee
// assessment and dividend-balance mirroring happen here; a returned error
// means the event must be redelivered.
func (s *Service) ProcessTransferEvent(ctx context.Context, event *types.TransferEvent) error {
	if err := event.Validate(); err != nil {
		// malformed events are not retryable
		log.Ctx(ctx).Error().Err(err).Str("eventId", event.EventID).Msg("Dropping invalid transfer event")
		return nil
	}

	sender, err := types.NormalizeAccount(event.Sender)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("eventId", event.EventID).Msg("Dropping transfer event with bad sender")
		return nil
	}
	recipient, err := types.NormalizeAccount(event.Recipient)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("eventId", event.EventID).Msg("Dropping transfer event with bad recipient")
		return nil
	}

	direction := s.classifyDirection(sender, recipient)

	startTime := time.Now()
	processErr := s.processTransfer(ctx, event, sender, recipient, direction)
	metrics.RecordTransferProcessingDuration(time.Since(startTime), direction.String(), processErr != nil)
	return processErr
}

// classifyDirection resolves a transfer relative to the market venue: a
// market maker sending is a buy, a market maker receiving is a sell.
func (s *Service) classifyDirection(sender, recipient types.Account) types.TransferDirection {
	if _, ok := s.marketMakers[sender]; ok {
		return types.DirectionBuy
	}
	if _, ok := s.marketMakers[recipient]; ok {
		return types.DirectionSell
	}
	return types.DirectionTransfer
}

func (s *Service) isFeeExempt(sender, recipient types.Account) bool {
	if _, ok := s.feeExempt[sender]; ok {
		return true
	}
	_, ok := s.feeExempt[recipient]
	return ok
}

func (s *Service) processTransfer(
	ctx context.Context,
	event *types.TransferEvent,
	sender, recipient types.Account,
	direction types.TransferDirection,
) error {
	cfg := s.engine.Config()

	if !s.isFeeExempt(sender, recipient) {
		chargedTable, err := s.chargedScheduleTable(ctx, event.ScheduleVersion)
		if err != nil {
			return err
		}
		assessment, err := s.engine.ComputeFeeWithTable(
			chargedTable,
			sender,
			event.Amount,
			s.cfg.Engine.LaunchTime,
			event.Timestamp,
			event.ObservedPriceE18,
			direction,
			event.Round,
		)
		switch {
		case errors.Is(err, fees.ErrTransferRejected):
			// the ledger already settled this transfer; all the engine can
			// do post-hoc is flag it
			metrics.IncFlaggedTransfers(cfg.AntiFlashloanMode.String())
			log.Ctx(ctx).Warn().
				Str("eventId", event.EventID).
				Str("sender", sender.String()).
				Uint64("round", event.Round).
				Msg("Transfer flagged for same-round round-trip in reject mode")
		case errors.Is(err, fees.ErrArithmeticOverflow):
			log.Ctx(ctx).Error().Err(err).
				Str("eventId", event.EventID).
				Msg("Dropping transfer event: fee computation overflowed")
			return nil
		case err != nil:
			return fmt.Errorf("failed to compute fee for event %s: %w", event.EventID, err)
		default:
			if assessment.Flagged {
				metrics.IncFlaggedTransfers(cfg.AntiFlashloanMode.String())
			}
			if assessment.Fee.IsPositive() {
				metrics.IncFeesAssessed(direction.String())
			}
			if assessment.RefundEligible {
				if err := s.persistPendingRefund(ctx, sender); err != nil {
					return err
				}
			}
		}

		if round, ok := s.engine.Monitor().Fingerprint(sender); ok {
			if err := s.db.UpsertActivityFingerprint(ctx, sender.String(), round); err != nil {
				return fmt.Errorf("failed to persist activity fingerprint: %w", err)
			}
		}
	}

	s.tracker.OnBalanceChanged(sender, event.SenderBalance)
	s.tracker.OnBalanceChanged(recipient, event.RecipientBalance)
	s.tracker.OnBalanceChanged(s.collector, event.CollectorBalance)

	for _, account := range []types.Account{sender, recipient, s.collector} {
		if err := s.persistHolder(ctx, account); err != nil {
			return err
		}
	}

	supply, _ := new(big.Float).SetInt(s.tracker.TotalEligibleSupply().BigInt()).Float64()
	metrics.RecordEligibleSupply(supply)
	return nil
}

// chargedScheduleTable resolves the schedule snapshot the ledger charged a
// transfer under. Version zero, the live version, or an unknown version all
// resolve to the live table; only a known superseded version is rebuilt from
// storage so the fee engine can detect an over-charge.
func (s *Service) chargedScheduleTable(ctx context.Context, version uint64) (*schedule.Table, error) {
	live := s.engine.Table()
	if version == 0 || version == live.Version() {
		return live, nil
	}

	doc, err := s.db.GetScheduleTable(ctx, version)
	if db.IsNotFoundError(err) {
		log.Ctx(ctx).Warn().
			Uint64("version", version).
			Msg("Charged schedule version not stored, pricing against the live table")
		return live, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule version %d: %w", version, err)
	}
	return tableFromDocument(doc)
}

func (s *Service) persistPendingRefund(ctx context.Context, account types.Account) error {
	pending, ok := s.engine.PendingRefundOf(account)
	if !ok {
		return nil
	}
	doc := &model.PendingRefundDocument{
		Account:    account.String(),
		AmountOwed: pending.AmountOwed.String(),
		UnlockTime: pending.UnlockTime,
	}
	if err := s.db.UpsertPendingRefund(ctx, doc); err != nil {
		return fmt.Errorf("failed to persist pending refund: %w", err)
	}
	return nil
}

// persistHolder mirrors one holder's dividend state into durable storage,
// retrying transient failures.
func (s *Service) persistHolder(ctx context.Context, account types.Account) error {
	state, ok := s.tracker.HolderOf(account)
	if !ok {
		return nil
	}
	doc := &model.DividendAccountDocument{
		Account:            account.String(),
		Balance:            state.Balance.String(),
		WithdrawnDividends: state.WithdrawnDividends.String(),
		Corrections:        state.Corrections.String(),
		LastClaimTime:      state.LastClaimTime,
	}
	err := retry.Do(
		func() error { return s.db.UpsertDividendAccount(ctx, doc) },
		retry.Context(ctx),
		retry.Attempts(persistMaxRetryTimes),
		retry.Delay(persistRetryInterval),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("failed to persist dividend account %s: %w", account, err)
	}
	return nil
}
