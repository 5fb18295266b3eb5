package services

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db/model"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/fees"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/observability/metrics"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/schedule"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

// SetBracket replaces (or appends) one bracket of the live schedule. The new
// table version is persisted before the in-memory swap so a crash between the
// two never loses an acknowledged update.
func (s *Service) SetBracket(ctx context.Context, index int, bracket schedule.TaxBracket) error {
	next, err := s.engine.Table().WithBracket(index, bracket)
	if err != nil {
		return err
	}

	records := toBracketRecords(next.Brackets())
	if err := s.db.SaveScheduleTable(ctx, next.Version(), records); err != nil {
		return fmt.Errorf("failed to persist schedule version %d: %w", next.Version(), err)
	}

	s.engine.SwapTable(next)
	log.Ctx(ctx).Info().
		Uint64("version", next.Version()).
		Int("index", index).
		Msg("Schedule bracket updated")
	return nil
}

// UpdateFeeConfig swaps the scalar fee engine knobs.
func (s *Service) UpdateFeeConfig(ctx context.Context, cfg *fees.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	doc := &model.FeeEngineParamsDocument{
		DynamicFloorFrac:     cfg.DynamicFloorFrac,
		BuyFeeFloorPriceE18:  cfg.BuyFeeFloorPriceE18.String(),
		SellCapFloorPriceE18: cfg.SellCapFloorPriceE18.String(),
		AntiFlashloanMode:    cfg.AntiFlashloanMode.String(),
		RefundPeriodSeconds:  cfg.RefundPeriodSeconds,
	}
	if err := s.db.SaveFeeEngineParams(ctx, doc); err != nil {
		return fmt.Errorf("failed to persist fee engine params: %w", err)
	}

	s.engine.SwapConfig(cfg)
	log.Ctx(ctx).Info().
		Str("antiFlashloanMode", cfg.AntiFlashloanMode.String()).
		Msg("Fee engine config updated")
	return nil
}

// SetExcluded adds or removes an account from the dividend exclusion set.
func (s *Service) SetExcluded(ctx context.Context, account types.Account, excluded bool) error {
	s.tracker.SetExcluded(account, excluded)

	if err := s.persistHolder(ctx, account); err != nil {
		return err
	}
	return s.persistDividendGlobalState(ctx)
}

// SetMinimumBalance updates the dividend eligibility threshold.
func (s *Service) SetMinimumBalance(ctx context.Context, minimum sdkmath.Int) error {
	if minimum.IsNil() || minimum.IsNegative() {
		return fmt.Errorf("minimum balance must be non-negative")
	}
	s.tracker.SetMinimumBalance(minimum)
	return s.persistDividendGlobalState(ctx)
}

// ClaimRefund pays out an unlocked fee refund exactly once.
func (s *Service) ClaimRefund(ctx context.Context, account types.Account) (sdkmath.Int, error) {
	amount, err := s.engine.ClaimRefund(account, uint64(time.Now().Unix()))
	if err != nil {
		metrics.RecordRefundClaim(true)
		return sdkmath.ZeroInt(), err
	}

	if dbErr := s.db.DeletePendingRefund(ctx, account.String()); dbErr != nil {
		// a stale document would be restored at the next bootstrap and allow
		// a double claim, so roll the in-memory claim back
		s.engine.RestoreRefund(account, fees.PendingRefund{AmountOwed: amount})
		metrics.RecordRefundClaim(true)
		return sdkmath.ZeroInt(), fmt.Errorf("failed to delete claimed refund: %w", dbErr)
	}

	metrics.RecordRefundClaim(false)
	log.Ctx(ctx).Info().
		Str("account", account.String()).
		Str("amount", amount.String()).
		Msg("Refund claimed")
	return amount, nil
}

// WithdrawDividends pays out the account's accrued dividends exactly once.
func (s *Service) WithdrawDividends(ctx context.Context, account types.Account) (sdkmath.Int, error) {
	amount, err := s.tracker.Withdraw(account, uint64(time.Now().Unix()))
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	if err := s.persistHolder(ctx, account); err != nil {
		return sdkmath.ZeroInt(), err
	}

	log.Ctx(ctx).Info().
		Str("account", account.String()).
		Str("amount", amount.String()).
		Msg("Dividends withdrawn")
	return amount, nil
}

func toBracketRecords(brackets []schedule.TaxBracket) []model.TaxBracketRecord {
	records := make([]model.TaxBracketRecord, 0, len(brackets))
	for _, b := range brackets {
		records = append(records, model.TaxBracketRecord{
			FromSeconds: b.FromSeconds,
			ToSeconds:   b.ToSeconds,
			TaxRate:     b.TaxRate,
			PreScaling:  b.PreScaling,
			PostScaling: b.PostScaling,
		})
	}
	return records
}
