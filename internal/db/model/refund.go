package model

const PendingRefundCollection = "pending_refunds"

// PendingRefundDocument records a detected fee overcharge awaiting its
// unlock time. At most one document exists per account.
type PendingRefundDocument struct {
	Account    string `bson:"_id"`
	AmountOwed string `bson:"amount_owed"`
	UnlockTime uint64 `bson:"unlock_time"`
}
