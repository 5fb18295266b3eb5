package services

import (
	"context"
	"sort"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db/model"
)

// fakeDB is an in-memory stand-in for the mongo-backed store, good enough
// for exercising the service logic without a container.
type fakeDB struct {
	schedules    map[uint64][]model.TaxBracketRecord
	feeParams    *model.FeeEngineParamsDocument
	globalState  *model.DividendGlobalStateDocument
	accounts     map[string]model.DividendAccountDocument
	refunds      map[string]model.PendingRefundDocument
	fingerprints map[string]uint64
	held         map[string]model.HeldDistributionDocument
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		schedules:    make(map[uint64][]model.TaxBracketRecord),
		accounts:     make(map[string]model.DividendAccountDocument),
		refunds:      make(map[string]model.PendingRefundDocument),
		fingerprints: make(map[string]uint64),
		held:         make(map[string]model.HeldDistributionDocument),
	}
}

func (f *fakeDB) Ping(ctx context.Context) error { return nil }

func (f *fakeDB) SaveScheduleTable(ctx context.Context, version uint64, brackets []model.TaxBracketRecord) error {
	if _, ok := f.schedules[version]; ok {
		return &db.DuplicateKeyError{Key: "SCHEDULE", Message: "duplicate schedule version"}
	}
	f.schedules[version] = append([]model.TaxBracketRecord(nil), brackets...)
	return nil
}

func (f *fakeDB) GetScheduleTable(ctx context.Context, version uint64) (*model.ScheduleDocument, error) {
	brackets, ok := f.schedules[version]
	if !ok {
		return nil, &db.NotFoundError{Key: "SCHEDULE", Message: "no schedule table stored at this version"}
	}
	return &model.ScheduleDocument{
		BaseParamsDocument: model.BaseParamsDocument{Type: "SCHEDULE", Version: version},
		Brackets:           brackets,
	}, nil
}

func (f *fakeDB) GetLatestScheduleTable(ctx context.Context) (*model.ScheduleDocument, error) {
	if len(f.schedules) == 0 {
		return nil, &db.NotFoundError{Key: "SCHEDULE", Message: "no schedule table stored"}
	}
	versions := make([]uint64, 0, len(f.schedules))
	for v := range f.schedules {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })
	latest := versions[0]
	return &model.ScheduleDocument{
		BaseParamsDocument: model.BaseParamsDocument{Type: "SCHEDULE", Version: latest},
		Brackets:           f.schedules[latest],
	}, nil
}

func (f *fakeDB) SaveFeeEngineParams(ctx context.Context, params *model.FeeEngineParamsDocument) error {
	stored := *params
	f.feeParams = &stored
	return nil
}

func (f *fakeDB) GetFeeEngineParams(ctx context.Context) (*model.FeeEngineParamsDocument, error) {
	if f.feeParams == nil {
		return nil, &db.NotFoundError{Key: "FEE_ENGINE", Message: "no fee engine params stored"}
	}
	stored := *f.feeParams
	return &stored, nil
}

func (f *fakeDB) SaveDividendGlobalState(ctx context.Context, state *model.DividendGlobalStateDocument) error {
	stored := *state
	f.globalState = &stored
	return nil
}

func (f *fakeDB) GetDividendGlobalState(ctx context.Context) (*model.DividendGlobalStateDocument, error) {
	if f.globalState == nil {
		return nil, &db.NotFoundError{Key: "DIVIDEND_STATE", Message: "no dividend global state stored"}
	}
	stored := *f.globalState
	return &stored, nil
}

func (f *fakeDB) UpsertDividendAccount(ctx context.Context, account *model.DividendAccountDocument) error {
	f.accounts[account.Account] = *account
	return nil
}

func (f *fakeDB) GetDividendAccount(ctx context.Context, account string) (*model.DividendAccountDocument, error) {
	doc, ok := f.accounts[account]
	if !ok {
		return nil, &db.NotFoundError{Key: account, Message: "dividend account not found"}
	}
	return &doc, nil
}

func (f *fakeDB) GetAllDividendAccounts(ctx context.Context) ([]model.DividendAccountDocument, error) {
	accounts := make([]model.DividendAccountDocument, 0, len(f.accounts))
	for _, doc := range f.accounts {
		accounts = append(accounts, doc)
	}
	return accounts, nil
}

func (f *fakeDB) UpsertPendingRefund(ctx context.Context, refund *model.PendingRefundDocument) error {
	f.refunds[refund.Account] = *refund
	return nil
}

func (f *fakeDB) GetPendingRefund(ctx context.Context, account string) (*model.PendingRefundDocument, error) {
	doc, ok := f.refunds[account]
	if !ok {
		return nil, &db.NotFoundError{Key: account, Message: "pending refund not found"}
	}
	return &doc, nil
}

func (f *fakeDB) DeletePendingRefund(ctx context.Context, account string) error {
	delete(f.refunds, account)
	return nil
}

func (f *fakeDB) GetAllPendingRefunds(ctx context.Context) ([]model.PendingRefundDocument, error) {
	refunds := make([]model.PendingRefundDocument, 0, len(f.refunds))
	for _, doc := range f.refunds {
		refunds = append(refunds, doc)
	}
	return refunds, nil
}

func (f *fakeDB) UpsertActivityFingerprint(ctx context.Context, account string, round uint64) error {
	f.fingerprints[account] = round
	return nil
}

func (f *fakeDB) GetAllActivityFingerprints(ctx context.Context) ([]model.ActivityFingerprintDocument, error) {
	fingerprints := make([]model.ActivityFingerprintDocument, 0, len(f.fingerprints))
	for account, round := range f.fingerprints {
		fingerprints = append(fingerprints, model.ActivityFingerprintDocument{
			Account:         account,
			LastActiveRound: round,
		})
	}
	return fingerprints, nil
}

func (f *fakeDB) SaveHeldDistribution(ctx context.Context, held *model.HeldDistributionDocument) error {
	if _, ok := f.held[held.Id]; ok {
		return &db.DuplicateKeyError{Key: held.Id, Message: "duplicate held distribution"}
	}
	f.held[held.Id] = *held
	return nil
}

func (f *fakeDB) GetHeldDistributions(ctx context.Context) ([]model.HeldDistributionDocument, error) {
	held := make([]model.HeldDistributionDocument, 0, len(f.held))
	for _, doc := range f.held {
		held = append(held, doc)
	}
	return held, nil
}

func (f *fakeDB) DeleteHeldDistribution(ctx context.Context, id string) error {
	delete(f.held, id)
	return nil
}
