package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chain.ChainID != 8453 {
		t.Errorf("expected Base chain id, got %d", cfg.Chain.ChainID)
	}
	if cfg.Trade.GasReserve().String() != "50000000000000" {
		t.Errorf("unexpected gas reserve %s", cfg.Trade.GasReserve())
	}
	if cfg.Trade.VestingLock().String() != "10000000000000000000000000" {
		t.Errorf("unexpected vesting lock %s", cfg.Trade.VestingLock())
	}
	if cfg.Trade.MaxAttempts != 3 || cfg.Trade.BaseDelay != 2*time.Second {
		t.Errorf("unexpected trade retry defaults: %d %s", cfg.Trade.MaxAttempts, cfg.Trade.BaseDelay)
	}
	if cfg.Trade.BalanceMaxAttempts != 3 || cfg.Trade.BalanceBaseDelay != 500*time.Millisecond {
		t.Errorf("unexpected balance retry defaults: %d %s", cfg.Trade.BalanceMaxAttempts, cfg.Trade.BalanceBaseDelay)
	}
	if cfg.Wallet.SwitchSettleDelay != time.Second {
		t.Errorf("unexpected settle delay %s", cfg.Wallet.SwitchSettleDelay)
	}
	if !cfg.Trade.SlippageDecimal().Equal(cfg.Trade.SlippageDecimal().Round(2)) || cfg.Trade.Slippage != 0.05 {
		t.Errorf("unexpected slippage %v", cfg.Trade.Slippage)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
chain:
  rpc_url: http://localhost:8545
wallet:
  address: "0x1111111111111111111111111111111111111111"
trade:
  max_attempts: 5
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TRADER_SLIPPAGE", "0.01")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chain.RPCURL != "http://localhost:8545" {
		t.Errorf("expected rpc url from file, got %s", cfg.Chain.RPCURL)
	}
	if cfg.Trade.MaxAttempts != 5 {
		t.Errorf("expected max attempts from file, got %d", cfg.Trade.MaxAttempts)
	}
	if cfg.Trade.Slippage != 0.01 {
		t.Errorf("expected slippage from env, got %v", cfg.Trade.Slippage)
	}
	if cfg.Wallet.AddressHex().Hex() != "0x1111111111111111111111111111111111111111" {
		t.Errorf("unexpected wallet address %s", cfg.Wallet.AddressHex().Hex())
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Chain: ChainConfig{RPCURL: "http://x", ChainID: 8453},
			Trade: TradeConfig{
				Slippage:           0.05,
				GasReserveWei:      "1",
				VestingLockWei:     "1",
				MaxAttempts:        3,
				BalanceMaxAttempts: 3,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing rpc", func(c *Config) { c.Chain.RPCURL = "" }, true},
		{"bad wallet", func(c *Config) { c.Wallet.Address = "nope" }, true},
		{"slippage one", func(c *Config) { c.Trade.Slippage = 1 }, true},
		{"negative slippage", func(c *Config) { c.Trade.Slippage = -0.1 }, true},
		{"bad reserve", func(c *Config) { c.Trade.GasReserveWei = "0.5" }, true},
		{"zero attempts", func(c *Config) { c.Trade.MaxAttempts = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
