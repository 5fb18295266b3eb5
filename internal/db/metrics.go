package db

import (
	"context"
	"time"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db/model"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/observability/metrics"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) SaveScheduleTable(ctx context.Context, version uint64, brackets []model.TaxBracketRecord) error {
	return d.run("SaveScheduleTable", func() error {
		return d.db.SaveScheduleTable(ctx, version, brackets)
	})
}

func (d *DbWithMetrics) GetScheduleTable(ctx context.Context, version uint64) (result *model.ScheduleDocument, err error) {
	//nolint:errcheck
	d.run("GetScheduleTable", func() error {
		result, err = d.db.GetScheduleTable(ctx, version)
		return err
	})
	return
}

func (d *DbWithMetrics) GetLatestScheduleTable(ctx context.Context) (result *model.ScheduleDocument, err error) {
	//nolint:errcheck
	d.run("GetLatestScheduleTable", func() error {
		result, err = d.db.GetLatestScheduleTable(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveFeeEngineParams(ctx context.Context, params *model.FeeEngineParamsDocument) error {
	return d.run("SaveFeeEngineParams", func() error {
		return d.db.SaveFeeEngineParams(ctx, params)
	})
}

func (d *DbWithMetrics) GetFeeEngineParams(ctx context.Context) (result *model.FeeEngineParamsDocument, err error) {
	//nolint:errcheck
	d.run("GetFeeEngineParams", func() error {
		result, err = d.db.GetFeeEngineParams(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveDividendGlobalState(ctx context.Context, state *model.DividendGlobalStateDocument) error {
	return d.run("SaveDividendGlobalState", func() error {
		return d.db.SaveDividendGlobalState(ctx, state)
	})
}

func (d *DbWithMetrics) GetDividendGlobalState(ctx context.Context) (result *model.DividendGlobalStateDocument, err error) {
	//nolint:errcheck
	d.run("GetDividendGlobalState", func() error {
		result, err = d.db.GetDividendGlobalState(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) UpsertDividendAccount(ctx context.Context, account *model.DividendAccountDocument) error {
	return d.run("UpsertDividendAccount", func() error {
		return d.db.UpsertDividendAccount(ctx, account)
	})
}

func (d *DbWithMetrics) GetDividendAccount(ctx context.Context, account string) (result *model.DividendAccountDocument, err error) {
	//nolint:errcheck
	d.run("GetDividendAccount", func() error {
		result, err = d.db.GetDividendAccount(ctx, account)
		return err
	})
	return
}

func (d *DbWithMetrics) GetAllDividendAccounts(ctx context.Context) (result []model.DividendAccountDocument, err error) {
	//nolint:errcheck
	d.run("GetAllDividendAccounts", func() error {
		result, err = d.db.GetAllDividendAccounts(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) UpsertPendingRefund(ctx context.Context, refund *model.PendingRefundDocument) error {
	return d.run("UpsertPendingRefund", func() error {
		return d.db.UpsertPendingRefund(ctx, refund)
	})
}

func (d *DbWithMetrics) GetPendingRefund(ctx context.Context, account string) (result *model.PendingRefundDocument, err error) {
	//nolint:errcheck
	d.run("GetPendingRefund", func() error {
		result, err = d.db.GetPendingRefund(ctx, account)
		return err
	})
	return
}

func (d *DbWithMetrics) DeletePendingRefund(ctx context.Context, account string) error {
	return d.run("DeletePendingRefund", func() error {
		return d.db.DeletePendingRefund(ctx, account)
	})
}

func (d *DbWithMetrics) GetAllPendingRefunds(ctx context.Context) (result []model.PendingRefundDocument, err error) {
	//nolint:errcheck
	d.run("GetAllPendingRefunds", func() error {
		result, err = d.db.GetAllPendingRefunds(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) UpsertActivityFingerprint(ctx context.Context, account string, round uint64) error {
	return d.run("UpsertActivityFingerprint", func() error {
		return d.db.UpsertActivityFingerprint(ctx, account, round)
	})
}

func (d *DbWithMetrics) GetAllActivityFingerprints(ctx context.Context) (result []model.ActivityFingerprintDocument, err error) {
	//nolint:errcheck
	d.run("GetAllActivityFingerprints", func() error {
		result, err = d.db.GetAllActivityFingerprints(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveHeldDistribution(ctx context.Context, held *model.HeldDistributionDocument) error {
	return d.run("SaveHeldDistribution", func() error {
		return d.db.SaveHeldDistribution(ctx, held)
	})
}

func (d *DbWithMetrics) GetHeldDistributions(ctx context.Context) (result []model.HeldDistributionDocument, err error) {
	//nolint:errcheck
	d.run("GetHeldDistributions", func() error {
		result, err = d.db.GetHeldDistributions(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) DeleteHeldDistribution(ctx context.Context, id string) error {
	return d.run("DeleteHeldDistribution", func() error {
		return d.db.DeleteHeldDistribution(ctx, id)
	})
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
