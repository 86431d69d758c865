package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrNilAsset        = errors.New("asset: nil asset")
	ErrNegativeAmount  = errors.New("asset: negative amount")
	ErrNonPositive     = errors.New("asset: amount must be greater than zero")
	ErrInvalidDecimal  = errors.New("asset: invalid decimal string")
	ErrAssetMismatch   = errors.New("asset: cannot operate on different assets")
	ErrTooManyDecimals = errors.New("asset: too many decimal places for asset")
	ErrAmountTooLarge  = errors.New("asset: amount does not fit in 256 bits")
)

// MaxDigits is the number of decimal digits a uint256 can hold.
const MaxDigits = 78

// CheckMagnitude rejects d when, scaled by decimals, its integer part or its
// fractional part is wider than MaxDigits. Run it before Shift or any
// comparison: both materialize 10^exponent.
func CheckMagnitude(d decimal.Decimal, decimals uint8) error {
	exp := int64(d.Exponent())
	if exp < -MaxDigits {
		return ErrTooManyDecimals
	}
	if int64(d.NumDigits())+exp+int64(decimals) > MaxDigits {
		return ErrAmountTooLarge
	}
	return nil
}

// ToSmallestUnit converts a human decimal string into an integer amount of
// the smallest unit for the given precision. It never uses binary floats.
// Zero and negative values, malformed input, values wider than 256 bits and
// fractional digits beyond the precision are rejected.
func ToSmallestUnit(human string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(human)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecimal, human)
	}
	if !d.IsPositive() {
		return nil, ErrNonPositive
	}
	if err := CheckMagnitude(d, decimals); err != nil {
		return nil, fmt.Errorf("%w: %q", err, human)
	}

	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("%w: %q has more than %d", ErrTooManyDecimals, human, decimals)
	}

	return scaled.BigInt(), nil
}

// FromSmallestUnit renders raw at the given precision for display.
func FromSmallestUnit(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// Amount is an immutable quantity of an asset in its smallest unit.
type Amount struct {
	raw   *big.Int
	asset *Asset
}

// NewAmount creates an Amount. Panics on nil asset or negative raw.
func NewAmount(asset *Asset, raw *big.Int) Amount {
	if asset == nil {
		panic(ErrNilAsset)
	}
	if raw == nil {
		raw = new(big.Int)
	}
	if raw.Sign() < 0 {
		panic(ErrNegativeAmount)
	}
	return Amount{raw: new(big.Int).Set(raw), asset: asset}
}

// ParseString parses a human amount for asset.
func ParseString(asset *Asset, s string) (Amount, error) {
	if asset == nil {
		return Amount{}, ErrNilAsset
	}
	raw, err := ToSmallestUnit(s, asset.Decimals())
	if err != nil {
		return Amount{}, err
	}
	return NewAmount(asset, raw), nil
}

// Raw returns a copy of the raw value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

// Asset returns the denomination.
func (a Amount) Asset() *Asset { return a.asset }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.raw == nil || a.raw.Sign() == 0 }

// Add adds two amounts of the same asset.
func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.checkSameAsset(b); err != nil {
		return Amount{}, err
	}
	return NewAmount(a.asset, new(big.Int).Add(a.raw, b.raw)), nil
}

// SubFloor subtracts b from a, clamping at zero.
func (a Amount) SubFloor(b Amount) (Amount, error) {
	if err := a.checkSameAsset(b); err != nil {
		return Amount{}, err
	}
	diff := new(big.Int).Sub(a.raw, b.raw)
	if diff.Sign() < 0 {
		diff.SetInt64(0)
	}
	return NewAmount(a.asset, diff), nil
}

// Cmp compares two amounts of the same asset.
func (a Amount) Cmp(b Amount) (int, error) {
	if err := a.checkSameAsset(b); err != nil {
		return 0, err
	}
	return a.raw.Cmp(b.raw), nil
}

// ToDecimal converts for display. Do not use it for arithmetic.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.asset == nil {
		return decimal.Zero
	}
	return FromSmallestUnit(a.raw, a.asset.Decimals())
}

// String returns e.g. "1.5 ETH".
func (a Amount) String() string {
	if a.asset == nil {
		return "0 ???"
	}
	return fmt.Sprintf("%s %s", a.ToDecimal().String(), a.asset.Symbol())
}

func (a Amount) checkSameAsset(b Amount) error {
	if a.asset == nil || b.asset == nil {
		return ErrNilAsset
	}
	if !a.asset.Equals(b.asset) {
		return fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, a.asset.Symbol(), b.asset.Symbol())
	}
	return nil
}
