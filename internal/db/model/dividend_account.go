package model

const DividendAccountCollection = "dividend_accounts"

// DividendAccountDocument is the durable per-holder dividend state, keyed by
// account identity. Amounts are decimal strings: they regularly exceed the
// 64-bit range BSON integers can carry.
type DividendAccountDocument struct {
	Account            string `bson:"_id"`
	Balance            string `bson:"balance"`
	WithdrawnDividends string `bson:"withdrawn_dividends"`
	Corrections        string `bson:"corrections"`
	LastClaimTime      uint64 `bson:"last_claim_time"`
}
