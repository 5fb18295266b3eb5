package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/abuse"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/config"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/dividends"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/fees"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/queue"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

type Service struct {
	cfg          *config.Config
	db           db.DbInterface
	engine       *fees.Engine
	tracker      *dividends.Tracker
	queueManager *queue.QueueManager

	collector    types.Account
	marketMakers map[types.Account]struct{}
	feeExempt    map[types.Account]struct{}
}

func NewService(
	cfg *config.Config,
	dbClient db.DbInterface,
	qm *queue.QueueManager,
) (*Service, error) {
	table, err := cfg.Engine.ScheduleTable()
	if err != nil {
		return nil, err
	}
	engine := fees.NewEngine(table, cfg.Engine.FeeConfig(), abuse.NewMonitor())

	tracker := dividends.NewTracker(cfg.Dividends.MinimumBalance())
	for _, raw := range cfg.Dividends.ExcludedAccounts {
		account, err := types.NormalizeAccount(raw)
		if err != nil {
			return nil, err
		}
		tracker.SetExcluded(account, true)
	}

	collector, err := types.NormalizeAccount(cfg.Engine.CollectorAccount)
	if err != nil {
		return nil, err
	}

	marketMakers := make(map[types.Account]struct{})
	for _, raw := range cfg.Engine.MarketMakerAccounts {
		account, err := types.NormalizeAccount(raw)
		if err != nil {
			return nil, err
		}
		marketMakers[account] = struct{}{}
	}

	feeExempt := make(map[types.Account]struct{})
	for _, raw := range cfg.Engine.FeeExemptAccounts {
		account, err := types.NormalizeAccount(raw)
		if err != nil {
			return nil, err
		}
		feeExempt[account] = struct{}{}
	}

	return &Service{
		cfg:          cfg,
		db:           dbClient,
		engine:       engine,
		tracker:      tracker,
		queueManager: qm,
		collector:    collector,
		marketMakers: marketMakers,
		feeExempt:    feeExempt,
	}, nil
}

func (s *Service) Engine() *fees.Engine {
	return s.engine
}

func (s *Service) Tracker() *dividends.Tracker {
	return s.tracker
}

// StartAccountingSync restores durable state, starts the held-distribution
// retry poller and begins consuming settled transfer events.
func (s *Service) StartAccountingSync(ctx context.Context) error {
	if err := s.BootstrapAccounting(ctx); err != nil {
		return err
	}

	s.StartHeldDistributionRetry(ctx)

	if err := s.queueManager.StartConsuming(ctx, s.ProcessTransferEvent); err != nil {
		return err
	}
	log.Info().Msg("Accounting sync started")
	return nil
}
