package model

const GlobalParamsCollection = "global_params"

// BaseParamsDocument keys versioned global parameter documents. The schedule
// table keeps every version it has ever had; the fee engine params and the
// dividend global state live at a single hardcoded version and are upserted
// in place, keeping the same pattern for future compatibility.
type BaseParamsDocument struct {
	Type    string `bson:"type"`
	Version uint64 `bson:"version"`
}

// TaxBracketRecord mirrors one schedule bracket.
type TaxBracketRecord struct {
	FromSeconds uint64 `bson:"from_seconds"`
	ToSeconds   uint64 `bson:"to_seconds"`
	TaxRate     uint32 `bson:"tax_rate"`
	PreScaling  uint32 `bson:"pre_scaling"`
	PostScaling uint32 `bson:"post_scaling"`
}

type ScheduleDocument struct {
	BaseParamsDocument `bson:",inline"`
	Brackets           []TaxBracketRecord `bson:"brackets"`
}

type FeeEngineParamsDocument struct {
	BaseParamsDocument   `bson:",inline"`
	DynamicFloorFrac     uint32 `bson:"dynamic_floor_frac"`
	BuyFeeFloorPriceE18  string `bson:"buy_fee_floor_price_e18"`
	SellCapFloorPriceE18 string `bson:"sell_cap_floor_price_e18"`
	AntiFlashloanMode    string `bson:"anti_flashloan_mode"`
	RefundPeriodSeconds  uint64 `bson:"refund_period_seconds"`
}

type DividendGlobalStateDocument struct {
	BaseParamsDocument `bson:",inline"`
	MagnifiedPerShare  string   `bson:"magnified_per_share"`
	TotalDistributed   string   `bson:"total_distributed"`
	MinimumBalance     string   `bson:"minimum_balance"`
	ExcludedAccounts   []string `bson:"excluded_accounts"`
}
