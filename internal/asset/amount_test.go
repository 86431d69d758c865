package asset_test

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/artcoin-trader/internal/asset"
)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad big int %q", s)
	}
	return v
}

func TestToSmallestUnit(t *testing.T) {
	tests := []struct {
		name     string
		human    string
		decimals uint8
		want     string
		wantErr  error
	}{
		{"one and a half ether", "1.5", 18, "1500000000000000000", nil},
		{"one micro usdc", "0.000001", 6, "1", nil},
		{"integer", "42", 6, "42000000", nil},
		{"trailing zeros beyond precision", "1.500000", 2, "150", nil},
		{"zero decimals", "7", 0, "7", nil},
		{"ten million coins", "10000000", 18, "10000000000000000000000000", nil},
		{"zero", "0", 18, "", asset.ErrNonPositive},
		{"negative", "-1", 18, "", asset.ErrNonPositive},
		{"garbage", "abc", 18, "", asset.ErrInvalidDecimal},
		{"empty", "", 18, "", asset.ErrInvalidDecimal},
		{"too precise", "0.0000001", 6, "", asset.ErrTooManyDecimals},
		{"uint256 max width", "1" + strings.Repeat("0", 59), 18, "1" + strings.Repeat("0", 77), nil},
		{"wider than uint256", "1" + strings.Repeat("0", 60), 18, "", asset.ErrAmountTooLarge},
		{"huge exponent", "1e100000000", 18, "", asset.ErrAmountTooLarge},
		{"tiny exponent", "1e-100000000", 18, "", asset.ErrTooManyDecimals},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := asset.ToSmallestUnit(tt.human, tt.decimals)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Cmp(mustBig(t, tt.want)) != 0 {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestFromSmallestUnit(t *testing.T) {
	d := asset.FromSmallestUnit(big.NewInt(50_000_000_000_000), 18)
	if !d.Equal(decimal.RequireFromString("0.00005")) {
		t.Errorf("expected 0.00005, got %s", d)
	}
}

func TestAmount_Basic(t *testing.T) {
	oneETH := asset.NewAmount(asset.ETH, big.NewInt(1e18))

	if oneETH.IsZero() {
		t.Error("expected non-zero amount")
	}
	if oneETH.String() != "1 ETH" {
		t.Errorf("expected '1 ETH', got '%s'", oneETH.String())
	}
}

func TestAmount_ParseString(t *testing.T) {
	amt, err := asset.ParseString(asset.USDC, "12.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amt.Raw().Cmp(big.NewInt(12_500_000)) != 0 {
		t.Errorf("expected 12500000, got %s", amt.Raw())
	}

	if _, err := asset.ParseString(nil, "1"); !errors.Is(err, asset.ErrNilAsset) {
		t.Errorf("expected ErrNilAsset, got %v", err)
	}
}

func TestAmount_SubFloor(t *testing.T) {
	raw := asset.NewAmount(asset.WETH, mustBig(t, "3000000000000000000"))
	lock := asset.NewAmount(asset.WETH, mustBig(t, "5000000000000000000"))

	avail, err := raw.SubFloor(lock)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !avail.IsZero() {
		t.Errorf("expected clamp to zero, got %s", avail)
	}

	avail, _ = lock.SubFloor(raw)
	if avail.Raw().Cmp(mustBig(t, "2000000000000000000")) != 0 {
		t.Errorf("expected 2e18, got %s", avail.Raw())
	}
}

func TestAmount_CannotMixAssets(t *testing.T) {
	oneETH := asset.NewAmount(asset.ETH, big.NewInt(1e18))
	oneUSDC := asset.NewAmount(asset.USDC, big.NewInt(1e6))

	if _, err := oneETH.Add(oneUSDC); !errors.Is(err, asset.ErrAssetMismatch) {
		t.Errorf("expected ErrAssetMismatch, got %v", err)
	}
	if _, err := oneETH.Cmp(oneUSDC); err == nil {
		t.Error("expected error comparing different assets")
	}
}

func TestDescriptor_Identity(t *testing.T) {
	a := asset.ERC20(common.HexToAddress("0x00000000000000000000000000000000000000aa"))
	b := asset.ERC20(common.HexToAddress("0x00000000000000000000000000000000000000AA"))
	c := asset.ERC20(common.HexToAddress("0x00000000000000000000000000000000000000bb"))

	if !a.Equal(b) {
		t.Error("same address should be the same asset")
	}
	if a.Equal(c) {
		t.Error("different addresses should differ")
	}
	if a.Equal(asset.Native()) {
		t.Error("token should differ from native")
	}
	if (asset.Descriptor{}).Valid() {
		t.Error("zero descriptor must not be valid")
	}
}

func TestDescriptor_ParseAndText(t *testing.T) {
	d, err := asset.ParseDescriptor("NATIVE")
	if err != nil || !d.IsNative() {
		t.Fatalf("expected native, got %v (%v)", d, err)
	}

	d, err = asset.ParseDescriptor(asset.AddrUSDCBase.Hex())
	if err != nil || !d.IsERC20() || d.Address() != asset.AddrUSDCBase {
		t.Fatalf("expected USDC descriptor, got %v (%v)", d, err)
	}

	if _, err := asset.ParseDescriptor("0x0000000000000000000000000000000000000000"); err == nil {
		t.Error("expected zero address to be rejected")
	}
	if _, err := asset.ParseDescriptor("not-an-address"); err == nil {
		t.Error("expected garbage to be rejected")
	}

	text, err := d.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back asset.Descriptor
	if err := back.UnmarshalText(text); err != nil || !back.Equal(d) {
		t.Errorf("expected %v after text round trip, got %v (%v)", d, back, err)
	}
}

func TestMatch_Exhaustive(t *testing.T) {
	kind := func(d asset.Descriptor) string {
		return asset.Match(d,
			func() string { return "native" },
			func(addr common.Address) string { return "token:" + addr.Hex() },
		)
	}

	if kind(asset.Native()) != "native" {
		t.Error("expected native branch")
	}
	if kind(asset.ERC20(asset.AddrUSDCBase)) != "token:"+asset.AddrUSDCBase.Hex() {
		t.Error("expected token branch")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on invalid descriptor")
		}
	}()
	kind(asset.Descriptor{})
}

func TestRegistry(t *testing.T) {
	r := asset.DefaultRegistry()

	eth, ok := r.Get(asset.Native())
	if !ok || eth.Symbol() != "ETH" {
		t.Fatalf("expected ETH for native, got %v", eth)
	}

	usdc, ok := r.GetBySymbol("usdc")
	if !ok || usdc.Decimals() != 6 {
		t.Fatalf("expected USDC with 6 decimals, got %v", usdc)
	}

	d, err := r.Resolve("USDC")
	if err != nil || !d.Equal(asset.ERC20(asset.AddrUSDCBase)) {
		t.Errorf("expected USDC descriptor, got %v (%v)", d, err)
	}

	coin := common.HexToAddress("0x1111111111111111111111111111111111111111")
	d, err = r.Resolve(coin.Hex())
	if err != nil || d.Address() != coin {
		t.Errorf("expected unknown address to resolve structurally, got %v (%v)", d, err)
	}

	if r.Count() != 3 {
		t.Errorf("expected 3 assets, got %d", r.Count())
	}

	all := r.All()
	if len(all) != 3 || all[0].Symbol() != "ETH" || all[2].Symbol() != "WETH" {
		t.Errorf("expected assets ordered by symbol, got %v", all)
	}
}
