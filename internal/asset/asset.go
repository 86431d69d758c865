package asset

import "github.com/ethereum/go-ethereum/common"

// NativeDecimals is the precision of the native coin.
const NativeDecimals uint8 = 18

// Asset is the metadata for a Descriptor. The symbol is display only.
type Asset struct {
	descriptor Descriptor
	symbol     string
	name       string
	decimals   uint8
}

// NewAsset creates an Asset. Panics on an invalid descriptor or empty symbol.
func NewAsset(d Descriptor, symbol string, decimals uint8) *Asset {
	if !d.Valid() {
		panic("asset: invalid descriptor")
	}
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 36 {
		panic("asset: suspicious decimals (>36)")
	}

	return &Asset{
		descriptor: d,
		symbol:     symbol,
		decimals:   decimals,
	}
}

// NewAssetWithName creates an Asset with a human-readable name.
func NewAssetWithName(d Descriptor, symbol, name string, decimals uint8) *Asset {
	a := NewAsset(d, symbol, decimals)
	a.name = name
	return a
}

// Descriptor returns the asset identity.
func (a *Asset) Descriptor() Descriptor { return a.descriptor }

// Symbol returns the ticker symbol.
func (a *Asset) Symbol() string { return a.symbol }

// Name returns the name, falling back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Decimals returns the number of decimal places.
func (a *Asset) Decimals() uint8 { return a.decimals }

// IsNative reports whether this is the native coin.
func (a *Asset) IsNative() bool { return a.descriptor.IsNative() }

// Address returns the token address (zero for native).
func (a *Asset) Address() common.Address { return a.descriptor.Address() }

func (a *Asset) String() string { return a.symbol }

// Equals compares two assets by descriptor.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.descriptor.Equal(other.descriptor)
}
