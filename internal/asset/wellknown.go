package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs
const (
	ChainIDEthereum    = 1
	ChainIDBase        = 8453
	ChainIDBaseSepolia = 84532
)

// Token addresses on Base
var (
	AddrUSDCBase = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	AddrWETHBase = common.HexToAddress("0x4200000000000000000000000000000000000006")
)

// Well-known assets on Base
var (
	ETH  = NewAssetWithName(Native(), "ETH", "Ether", NativeDecimals)
	USDC = NewAssetWithName(ERC20(AddrUSDCBase), "USDC", "USD Coin", 6)
	WETH = NewAssetWithName(ERC20(AddrWETHBase), "WETH", "Wrapped Ether", 18)
)

// DefaultRegistry returns a registry pre-populated with well-known assets.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ETH)
	r.Register(USDC)
	r.Register(WETH)
	return r
}
