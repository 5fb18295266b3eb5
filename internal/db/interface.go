package db

import (
	"context"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db/model"
)

type DbInterface interface {
	Ping(ctx context.Context) error

	SaveScheduleTable(ctx context.Context, version uint64, brackets []model.TaxBracketRecord) error
	GetScheduleTable(ctx context.Context, version uint64) (*model.ScheduleDocument, error)
	GetLatestScheduleTable(ctx context.Context) (*model.ScheduleDocument, error)

	SaveFeeEngineParams(ctx context.Context, params *model.FeeEngineParamsDocument) error
	GetFeeEngineParams(ctx context.Context) (*model.FeeEngineParamsDocument, error)

	SaveDividendGlobalState(ctx context.Context, state *model.DividendGlobalStateDocument) error
	GetDividendGlobalState(ctx context.Context) (*model.DividendGlobalStateDocument, error)

	UpsertDividendAccount(ctx context.Context, account *model.DividendAccountDocument) error
	GetDividendAccount(ctx context.Context, account string) (*model.DividendAccountDocument, error)
	GetAllDividendAccounts(ctx context.Context) ([]model.DividendAccountDocument, error)

	UpsertPendingRefund(ctx context.Context, refund *model.PendingRefundDocument) error
	GetPendingRefund(ctx context.Context, account string) (*model.PendingRefundDocument, error)
	DeletePendingRefund(ctx context.Context, account string) error
	GetAllPendingRefunds(ctx context.Context) ([]model.PendingRefundDocument, error)

	UpsertActivityFingerprint(ctx context.Context, account string, round uint64) error
	GetAllActivityFingerprints(ctx context.Context) ([]model.ActivityFingerprintDocument, error)

	SaveHeldDistribution(ctx context.Context, held *model.HeldDistributionDocument) error
	GetHeldDistributions(ctx context.Context) ([]model.HeldDistributionDocument, error)
	DeleteHeldDistribution(ctx context.Context, id string) error
}
