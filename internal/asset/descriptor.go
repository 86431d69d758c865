// Package asset models the assets a trade moves: the chain's native coin and
// ERC-20 tokens. Amounts stay in big.Int smallest units; decimal.Decimal is
// only used at the boundaries (parsing user input, display).
package asset

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Kind tags a Descriptor variant.
type Kind uint8

const (
	kindInvalid Kind = iota
	KindNative
	KindERC20
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindERC20:
		return "erc20"
	default:
		return "invalid"
	}
}

// Descriptor identifies one side of a trade. It is a closed variant: either
// the native coin or an ERC-20 at an address. Identity is structural, so two
// ERC-20 descriptors with the same address are the same asset.
type Descriptor struct {
	kind    Kind
	address common.Address
}

// Native is the chain's base currency.
func Native() Descriptor {
	return Descriptor{kind: KindNative}
}

// ERC20 is the token deployed at addr.
func ERC20(addr common.Address) Descriptor {
	return Descriptor{kind: KindERC20, address: addr}
}

// ParseDescriptor accepts "native" (or "eth") or a hex token address.
func ParseDescriptor(s string) (Descriptor, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "native", "eth":
		return Native(), nil
	}
	if !common.IsHexAddress(s) {
		return Descriptor{}, fmt.Errorf("asset: %q is neither native nor a token address", s)
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return Descriptor{}, fmt.Errorf("asset: zero address is not a token")
	}
	return ERC20(addr), nil
}

// Kind returns the variant tag.
func (d Descriptor) Kind() Kind { return d.kind }

// Address returns the token address. Zero for native.
func (d Descriptor) Address() common.Address { return d.address }

// IsNative reports whether d is the native coin.
func (d Descriptor) IsNative() bool { return d.kind == KindNative }

// IsERC20 reports whether d is a token.
func (d Descriptor) IsERC20() bool { return d.kind == KindERC20 }

// Valid reports whether d is one of the two variants. The zero value is not.
func (d Descriptor) Valid() bool {
	switch d.kind {
	case KindNative:
		return true
	case KindERC20:
		return d.address != (common.Address{})
	default:
		return false
	}
}

// Equal compares variant and address.
func (d Descriptor) Equal(o Descriptor) bool {
	return d == o
}

func (d Descriptor) String() string {
	switch d.kind {
	case KindNative:
		return "native"
	case KindERC20:
		return d.address.Hex()
	default:
		return "invalid"
	}
}

// MarshalText encodes native as "native" and tokens as their checksummed address.
func (d Descriptor) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("asset: cannot marshal invalid descriptor")
	}
	return []byte(d.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (d *Descriptor) UnmarshalText(b []byte) error {
	parsed, err := ParseDescriptor(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Match dispatches on the variant. It panics on an invalid descriptor.
func Match[T any](d Descriptor, native func() T, erc20 func(addr common.Address) T) T {
	switch d.kind {
	case KindNative:
		return native()
	case KindERC20:
		return erc20(d.address)
	default:
		panic(fmt.Sprintf("asset: unmatched descriptor kind %d", d.kind))
	}
}
