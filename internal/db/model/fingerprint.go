package model

const ActivityFingerprintCollection = "activity_fingerprints"

// ActivityFingerprintDocument mirrors the anti-abuse monitor's last-active
// round per account so flagging survives a restart within a round.
type ActivityFingerprintDocument struct {
	Account         string `bson:"_id"`
	LastActiveRound uint64 `bson:"last_active_round"`
}
