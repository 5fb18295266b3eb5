package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db/model"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/dividends"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/observability/metrics"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/utils/poller"
)

// Distribute folds a reward amount into the dividend stream. When no holder
// is above the minimum balance the amount is parked durably and retried by
// the held-distribution poller; it is never dropped.
func (s *Service) Distribute(ctx context.Context, amount sdkmath.Int) error {
	err := s.tracker.Distribute(amount)
	if errors.Is(err, dividends.ErrNoEligibleSupply) {
		held := &model.HeldDistributionDocument{
			Id:        uuid.New().String(),
			Amount:    amount.String(),
			CreatedAt: uint64(time.Now().Unix()),
		}
		if dbErr := s.db.SaveHeldDistribution(ctx, held); dbErr != nil {
			return fmt.Errorf("failed to park held distribution: %w", dbErr)
		}
		log.Ctx(ctx).Warn().
			Str("amount", amount.String()).
			Msg("No eligible supply, distribution parked for retry")
		s.refreshHeldDistributionsGauge(ctx)
		return nil
	}
	if err != nil {
		return err
	}

	metrics.IncDistributionsApplied()
	return s.persistDividendGlobalState(ctx)
}

func (s *Service) StartHeldDistributionRetry(ctx context.Context) {
	heldDistributionPoller := poller.NewPoller(
		s.cfg.Poller.HeldDistributionRetryInterval,
		s.retryHeldDistributions,
	)
	go heldDistributionPoller.Start(ctx)
}

func (s *Service) retryHeldDistributions(ctx context.Context) *types.Error {
	err := metrics.RecordPollerDuration("held_distributions", s.applyHeldDistributions)(ctx)
	if err != nil {
		return types.NewInternalServiceError(err)
	}
	return nil
}

func (s *Service) applyHeldDistributions(ctx context.Context) error {
	heldDistributions, err := s.db.GetHeldDistributions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load held distributions: %w", err)
	}
	metrics.RecordHeldDistributionsCount(len(heldDistributions))
	if len(heldDistributions) == 0 {
		return nil
	}

	for _, held := range heldDistributions {
		amount, ok := sdkmath.NewIntFromString(held.Amount)
		if !ok {
			return fmt.Errorf("held distribution %s has malformed amount %q", held.Id, held.Amount)
		}

		distErr := s.tracker.Distribute(amount)
		if errors.Is(distErr, dividends.ErrNoEligibleSupply) {
			// still nobody to pay, try again next tick
			return nil
		}
		if distErr != nil {
			return distErr
		}

		if err := s.db.DeleteHeldDistribution(ctx, held.Id); err != nil {
			return fmt.Errorf("failed to delete applied held distribution %s: %w", held.Id, err)
		}
		metrics.IncDistributionsApplied()
		log.Ctx(ctx).Info().
			Str("id", held.Id).
			Str("amount", held.Amount).
			Msg("Applied held distribution")
	}

	if err := s.persistDividendGlobalState(ctx); err != nil {
		return err
	}
	s.refreshHeldDistributionsGauge(ctx)
	return nil
}

func (s *Service) refreshHeldDistributionsGauge(ctx context.Context) {
	heldDistributions, err := s.db.GetHeldDistributions(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to count held distributions")
		return
	}
	metrics.RecordHeldDistributionsCount(len(heldDistributions))
}

func (s *Service) persistDividendGlobalState(ctx context.Context) error {
	excluded := s.tracker.ExcludedAccounts()
	excludedRaw := make([]string, 0, len(excluded))
	for _, account := range excluded {
		excludedRaw = append(excludedRaw, account.String())
	}

	doc := &model.DividendGlobalStateDocument{
		MagnifiedPerShare: s.tracker.MagnifiedPerShare().String(),
		TotalDistributed:  s.tracker.TotalDistributed().String(),
		MinimumBalance:    s.tracker.MinimumBalance().String(),
		ExcludedAccounts:  excludedRaw,
	}
	if err := s.db.SaveDividendGlobalState(ctx, doc); err != nil {
		return fmt.Errorf("failed to persist dividend global state: %w", err)
	}
	return nil
}
