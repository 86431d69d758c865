package app

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/asset"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		human    string
		decimals uint8
		want     string
		ok       bool
	}{
		{"1.5", 18, "1500000000000000000", true},
		{"0.000001", 6, "1", true},
		{"100", 0, "100", true},
		{"0.0000001", 6, "", false},
		{"0", 18, "", false},
		{"-1", 18, "", false},
		{"abc", 18, "", false},
		{"", 18, "", false},
		{"1e100000000", 18, "", false},
		{"1e-100000000", 18, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.human, func(t *testing.T) {
			raw, err := NormalizeAmount(tt.human, tt.decimals)
			if !tt.ok {
				assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, raw.String())
		})
	}
}

func TestCheckAmountSyntax(t *testing.T) {
	assert.NoError(t, CheckAmountSyntax("0.5"))
	assert.True(t, apperror.HasCode(CheckAmountSyntax("0"), apperror.CodeInvalidAmount))
	assert.True(t, apperror.HasCode(CheckAmountSyntax("1.2.3"), apperror.CodeInvalidAmount))
	assert.True(t, apperror.HasCode(CheckAmountSyntax("1e100000000"), apperror.CodeInvalidAmount))
}

func TestDecimalsResolver(t *testing.T) {
	reader := &fakeDecimals{dec: 9}
	r := NewDecimalsResolver(asset.DefaultRegistry(), reader, testLogger())
	ctx := context.Background()

	assert.Equal(t, uint8(18), r.Resolve(ctx, asset.Native()))
	assert.Equal(t, uint8(6), r.Resolve(ctx, asset.USDC.Descriptor()))
	assert.Zero(t, reader.calls, "native and registered assets need no read")

	assert.Equal(t, uint8(9), r.Resolve(ctx, asset.ERC20(common.HexToAddress("0x1234"))))
	assert.Equal(t, 1, reader.calls)

	reader.err = errors.New("execution reverted")
	assert.Equal(t, uint8(18), r.Resolve(ctx, asset.ERC20(common.HexToAddress("0x5678"))))
}
