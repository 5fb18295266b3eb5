package services

import (
	"context"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db/model"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/dividends"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/fees"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/schedule"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

// BootstrapAccounting restores the engine and tracker from durable state.
// On a fresh database the config-derived defaults are persisted instead, so
// the stored state is authoritative from the first start onwards.
func (s *Service) BootstrapAccounting(ctx context.Context) error {
	if err := s.restoreSchedule(ctx); err != nil {
		return err
	}
	if err := s.restoreFeeParams(ctx); err != nil {
		return err
	}
	if err := s.restoreDividendState(ctx); err != nil {
		return err
	}
	if err := s.restoreHolders(ctx); err != nil {
		return err
	}
	if err := s.restoreRefunds(ctx); err != nil {
		return err
	}
	if err := s.restoreFingerprints(ctx); err != nil {
		return err
	}
	log.Info().Msg("Accounting state restored")
	return nil
}

func (s *Service) restoreSchedule(ctx context.Context) error {
	doc, err := s.db.GetLatestScheduleTable(ctx)
	if db.IsNotFoundError(err) {
		table := s.engine.Table()
		if saveErr := s.db.SaveScheduleTable(ctx, table.Version(), toBracketRecords(table.Brackets())); saveErr != nil {
			return fmt.Errorf("failed to seed schedule table: %w", saveErr)
		}
		return nil
	}
	if err != nil {
		return err
	}

	table, err := tableFromDocument(doc)
	if err != nil {
		return err
	}
	s.engine.SwapTable(table)
	log.Debug().Uint64("version", doc.Version).Msg("Restored schedule table")
	return nil
}

func tableFromDocument(doc *model.ScheduleDocument) (*schedule.Table, error) {
	brackets := make([]schedule.TaxBracket, 0, len(doc.Brackets))
	for _, b := range doc.Brackets {
		brackets = append(brackets, schedule.TaxBracket{
			FromSeconds: b.FromSeconds,
			ToSeconds:   b.ToSeconds,
			TaxRate:     b.TaxRate,
			PreScaling:  b.PreScaling,
			PostScaling: b.PostScaling,
		})
	}
	table, err := schedule.RestoreTable(doc.Version, brackets)
	if err != nil {
		return nil, fmt.Errorf("stored schedule version %d is invalid: %w", doc.Version, err)
	}
	return table, nil
}

func (s *Service) restoreFeeParams(ctx context.Context) error {
	doc, err := s.db.GetFeeEngineParams(ctx)
	if db.IsNotFoundError(err) {
		cfg := s.engine.Config()
		seed := &model.FeeEngineParamsDocument{
			DynamicFloorFrac:     cfg.DynamicFloorFrac,
			BuyFeeFloorPriceE18:  cfg.BuyFeeFloorPriceE18.String(),
			SellCapFloorPriceE18: cfg.SellCapFloorPriceE18.String(),
			AntiFlashloanMode:    cfg.AntiFlashloanMode.String(),
			RefundPeriodSeconds:  cfg.RefundPeriodSeconds,
		}
		if saveErr := s.db.SaveFeeEngineParams(ctx, seed); saveErr != nil {
			return fmt.Errorf("failed to seed fee engine params: %w", saveErr)
		}
		return nil
	}
	if err != nil {
		return err
	}

	buyFloor, ok := sdkmath.NewIntFromString(doc.BuyFeeFloorPriceE18)
	if !ok {
		return fmt.Errorf("stored buy fee floor price %q is malformed", doc.BuyFeeFloorPriceE18)
	}
	sellFloor, ok := sdkmath.NewIntFromString(doc.SellCapFloorPriceE18)
	if !ok {
		return fmt.Errorf("stored sell cap floor price %q is malformed", doc.SellCapFloorPriceE18)
	}
	mode, err := types.ParseAntiFlashloanMode(doc.AntiFlashloanMode)
	if err != nil {
		return err
	}

	s.engine.SwapConfig(&fees.Config{
		DynamicFloorFrac:     doc.DynamicFloorFrac,
		BuyFeeFloorPriceE18:  buyFloor,
		SellCapFloorPriceE18: sellFloor,
		AntiFlashloanMode:    mode,
		RefundPeriodSeconds:  doc.RefundPeriodSeconds,
	})
	return nil
}

func (s *Service) restoreDividendState(ctx context.Context) error {
	doc, err := s.db.GetDividendGlobalState(ctx)
	if db.IsNotFoundError(err) {
		return s.persistDividendGlobalState(ctx)
	}
	if err != nil {
		return err
	}

	magnifiedPerShare, ok := new(big.Int).SetString(doc.MagnifiedPerShare, 10)
	if !ok {
		return fmt.Errorf("stored magnified per share %q is malformed", doc.MagnifiedPerShare)
	}
	totalDistributed, ok := sdkmath.NewIntFromString(doc.TotalDistributed)
	if !ok {
		return fmt.Errorf("stored total distributed %q is malformed", doc.TotalDistributed)
	}
	minimumBalance, ok := sdkmath.NewIntFromString(doc.MinimumBalance)
	if !ok {
		return fmt.Errorf("stored minimum balance %q is malformed", doc.MinimumBalance)
	}

	s.tracker.RestoreGlobal(magnifiedPerShare, totalDistributed)
	s.tracker.SetMinimumBalance(minimumBalance)
	for _, raw := range doc.ExcludedAccounts {
		account, err := types.NormalizeAccount(raw)
		if err != nil {
			return fmt.Errorf("stored excluded account %q is malformed: %w", raw, err)
		}
		s.tracker.SetExcluded(account, true)
	}
	return nil
}

func (s *Service) restoreHolders(ctx context.Context) error {
	accounts, err := s.db.GetAllDividendAccounts(ctx)
	if err != nil {
		return err
	}

	for _, doc := range accounts {
		account, err := types.NormalizeAccount(doc.Account)
		if err != nil {
			return fmt.Errorf("stored dividend account %q is malformed: %w", doc.Account, err)
		}
		balance, ok := sdkmath.NewIntFromString(doc.Balance)
		if !ok {
			return fmt.Errorf("stored balance %q for %s is malformed", doc.Balance, doc.Account)
		}
		withdrawn, ok := sdkmath.NewIntFromString(doc.WithdrawnDividends)
		if !ok {
			return fmt.Errorf("stored withdrawn dividends %q for %s is malformed", doc.WithdrawnDividends, doc.Account)
		}
		corrections, ok := new(big.Int).SetString(doc.Corrections, 10)
		if !ok {
			return fmt.Errorf("stored corrections %q for %s is malformed", doc.Corrections, doc.Account)
		}

		s.tracker.RestoreHolder(account, dividends.HolderState{
			Balance:            balance,
			WithdrawnDividends: withdrawn,
			Corrections:        corrections,
			LastClaimTime:      doc.LastClaimTime,
		})
	}
	log.Debug().Int("holders", len(accounts)).Msg("Restored dividend accounts")
	return nil
}

func (s *Service) restoreRefunds(ctx context.Context) error {
	refunds, err := s.db.GetAllPendingRefunds(ctx)
	if err != nil {
		return err
	}

	for _, doc := range refunds {
		account, err := types.NormalizeAccount(doc.Account)
		if err != nil {
			return fmt.Errorf("stored refund account %q is malformed: %w", doc.Account, err)
		}
		amount, ok := sdkmath.NewIntFromString(doc.AmountOwed)
		if !ok {
			return fmt.Errorf("stored refund amount %q for %s is malformed", doc.AmountOwed, doc.Account)
		}
		s.engine.RestoreRefund(account, fees.PendingRefund{
			AmountOwed: amount,
			UnlockTime: doc.UnlockTime,
		})
	}
	return nil
}

func (s *Service) restoreFingerprints(ctx context.Context) error {
	fingerprints, err := s.db.GetAllActivityFingerprints(ctx)
	if err != nil {
		return err
	}

	restored := make(map[types.Account]uint64, len(fingerprints))
	for _, doc := range fingerprints {
		account, err := types.NormalizeAccount(doc.Account)
		if err != nil {
			return fmt.Errorf("stored fingerprint account %q is malformed: %w", doc.Account, err)
		}
		restored[account] = doc.LastActiveRound
	}
	s.engine.Monitor().Restore(restored)
	return nil
}
