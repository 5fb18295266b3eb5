package model

const HeldDistributionCollection = "held_distributions"

// HeldDistributionDocument parks a distribution that found no eligible
// supply. The amount is retried by the poller and never discarded.
type HeldDistributionDocument struct {
	Id        string `bson:"_id"`
	Amount    string `bson:"amount"`
	CreatedAt uint64 `bson:"created_at"`
}
