// Package domain contains the core domain types for the trading context.
package domain

// Direction says which side of the coin the sender is on.
type Direction string

const (
	// DirectionBuy spends native or a stablecoin to acquire a coin.
	DirectionBuy Direction = "BUY"

	// DirectionSell spends a coin. The vesting rule applies on this side.
	DirectionSell Direction = "SELL"
)

// String returns a human-readable description of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return "Buy"
	case DirectionSell:
		return "Sell"
	default:
		return "Unknown"
	}
}

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}
