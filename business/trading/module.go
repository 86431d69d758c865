// Package trading implements the trade execution bounded context.
package trading

import (
	"context"
	"fmt"
	"time"

	blockchainDI "github.com/fd1az/artcoin-trader/business/blockchain/di"
	"github.com/fd1az/artcoin-trader/business/trading/app"
	tradingDI "github.com/fd1az/artcoin-trader/business/trading/di"
	"github.com/fd1az/artcoin-trader/business/trading/infra/api"
	"github.com/fd1az/artcoin-trader/business/trading/infra/notify"
	"github.com/fd1az/artcoin-trader/business/trading/infra/provider"
	"github.com/fd1az/artcoin-trader/business/trading/infra/wallet"
	"github.com/fd1az/artcoin-trader/internal/asset"
	"github.com/fd1az/artcoin-trader/internal/config"
	"github.com/fd1az/artcoin-trader/internal/di"
	"github.com/fd1az/artcoin-trader/internal/logger"
	"github.com/fd1az/artcoin-trader/internal/monolith"
)

const walletConnectTimeout = 10 * time.Second

// Module implements the trading bounded context.
type Module struct {
	// Notifier receives trade progress. Nil logs it.
	Notifier app.Notifier
}

// RegisterServices registers all trading services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, tradingDI.WalletSession, func(sr di.ServiceRegistry) *wallet.Session {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		if cfg.Wallet.SessionURL == "" {
			return nil
		}
		session, err := wallet.NewSession(wallet.Config{
			URL:            cfg.Wallet.SessionURL,
			RequestTimeout: cfg.Wallet.RequestTimeout,
			Reconnect:      true,
		}, log)
		if err != nil {
			panic("failed to create wallet session: " + err.Error())
		}
		return session
	})

	di.RegisterToken(c, tradingDI.Provider, func(sr di.ServiceRegistry) *provider.HTTPProvider {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		p, err := provider.NewHTTPProvider(provider.Config{
			BaseURL:           cfg.Provider.BaseURL,
			APIKey:            cfg.Provider.APIKey,
			Timeout:           cfg.Provider.Timeout,
			RequestsPerMinute: cfg.Provider.RequestsPerMinute,
		}, log)
		if err != nil {
			panic("failed to create trading provider: " + err.Error())
		}
		return p
	})

	di.RegisterToken(c, tradingDI.Decimals, func(sr di.ServiceRegistry) *app.DecimalsResolver {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		registry := sr.Get(monolith.ServiceAssetRegistry).(*asset.Registry)
		return app.NewDecimalsResolver(registry, blockchainDI.GetBalanceService(sr), log)
	})

	di.RegisterToken(c, tradingDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		balances := blockchainDI.GetBalanceService(sr)

		// Without a wallet session the guard checks the RPC node's chain and cannot switch.
		var session app.WalletSession = balances
		var switcher app.ChainSwitcher
		if ws := tradingDI.GetWalletSession(sr); ws != nil {
			session, switcher = ws, ws
		}
		guard := app.NewNetworkGuard(session, switcher, cfg.Chain.ChainID, cfg.Wallet.SwitchSettleDelay, log)

		validator := app.NewBalanceValidator(balances, tradingDI.GetDecimals(sr), app.BalanceValidatorConfig{
			GasReserve:  cfg.Trade.GasReserve(),
			VestingLock: cfg.Trade.VestingLock(),
		}, log)

		notifier := m.Notifier
		if notifier == nil {
			notifier = notify.NewLogNotifier(log)
		}

		engine, err := app.NewEngine(app.EngineConfig{
			MaxAttempts:               cfg.Trade.MaxAttempts,
			BaseDelay:                 cfg.Trade.BaseDelay,
			MaxJitter:                 cfg.Trade.MaxJitter,
			ProviderUnavailableFactor: cfg.Trade.ProviderUnavailableFactor,
			QuoteMaxRetries:           cfg.Trade.QuoteMaxRetries,
			QuoteCooldown:             cfg.Trade.QuoteCooldown,
		}, guard, validator, tradingDI.GetProvider(sr), notifier, log)
		if err != nil {
			panic("failed to create trade engine: " + err.Error())
		}
		return engine
	})

	di.RegisterToken(c, tradingDI.Trader, func(sr di.ServiceRegistry) *app.Trader {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		registry := sr.Get(monolith.ServiceAssetRegistry).(*asset.Registry)

		return app.NewTrader(tradingDI.GetEngine(sr), tradingDI.GetDecimals(sr), registry, app.TradeDefaults{
			Sender:   cfg.Wallet.AddressHex(),
			Slippage: cfg.Trade.SlippageDecimal(),
		})
	})

	di.RegisterToken(c, tradingDI.APIServer, func(sr di.ServiceRegistry) *api.Server {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		registry := sr.Get(monolith.ServiceAssetRegistry).(*asset.Registry)

		return api.NewServer(api.Config{
			Port:           cfg.Server.APIPort,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			WriteTimeout:   cfg.Server.WriteTimeout,
		}, tradingDI.GetTrader(sr), registry, log)
	})

	return nil
}

// Startup connects the wallet session and registers health checks.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	sr := mono.Services()

	if session := tradingDI.GetWalletSession(sr); session != nil {
		connectCtx, cancel := context.WithTimeout(ctx, walletConnectTimeout)
		defer cancel()

		if err := session.Connect(connectCtx); err != nil {
			return fmt.Errorf("connect wallet session: %w", err)
		}
		log.Info(ctx, "wallet session connected", "url", cfg.Wallet.SessionURL)
	} else {
		log.Warn(ctx, "no wallet session configured, network switching disabled")
	}

	prov := tradingDI.GetProvider(sr)
	// Resolve the engine now so wiring errors surface at boot.
	tradingDI.GetEngine(sr)

	if hs := mono.Health(); hs != nil {
		hs.RegisterCheck("trading_provider", func(ctx context.Context) (bool, string) {
			if prov.BreakerOpen() {
				return false, "circuit open"
			}
			if err := prov.Ping(ctx); err != nil {
				return false, err.Error()
			}
			return true, ""
		})
		if session := tradingDI.GetWalletSession(sr); session != nil {
			hs.RegisterCheck("wallet_session", func(ctx context.Context) (bool, string) {
				if !session.Connected() {
					return false, "disconnected"
				}
				return true, ""
			})
		}
	}

	log.Info(ctx, "trading module started",
		"chain_id", cfg.Chain.ChainID,
		"max_attempts", cfg.Trade.MaxAttempts,
		"sender", cfg.Wallet.AddressHex().Hex())
	return nil
}
