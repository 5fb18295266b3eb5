package types

// Enum values for the direction of a transfer relative to the market venue
type TransferDirection string

const (
	DirectionBuy      TransferDirection = "BUY"
	DirectionSell     TransferDirection = "SELL"
	DirectionTransfer TransferDirection = "TRANSFER"
)

func (d TransferDirection) String() string {
	return string(d)
}
