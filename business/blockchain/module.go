// Package blockchain implements the chain read bounded context.
package blockchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/artcoin-trader/business/blockchain/app"
	blockchainDI "github.com/fd1az/artcoin-trader/business/blockchain/di"
	"github.com/fd1az/artcoin-trader/business/blockchain/infra/ethereum"
	"github.com/fd1az/artcoin-trader/internal/config"
	"github.com/fd1az/artcoin-trader/internal/di"
	"github.com/fd1az/artcoin-trader/internal/logger"
	"github.com/fd1az/artcoin-trader/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockchainDI.ChainReader, func(sr di.ServiceRegistry) *ethereum.Reader {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		client := sr.Get(monolith.ServiceEthClient).(*ethclient.Client)

		reader, err := ethereum.NewReader(client, ethereum.ReaderConfig{
			ReadTimeout:      cfg.Chain.ReadTimeout,
			DecimalsCacheTTL: cfg.Chain.DecimalsCacheTTL,
		}, log)
		if err != nil {
			panic("failed to create chain reader: " + err.Error())
		}
		return reader
	})

	di.RegisterToken(c, blockchainDI.BalanceService, func(sr di.ServiceRegistry) *app.BalanceService {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		return app.NewBalanceService(blockchainDI.GetChainReader(sr), app.ReadPolicyConfig{
			MaxAttempts: cfg.Trade.BalanceMaxAttempts,
			BaseDelay:   cfg.Trade.BalanceBaseDelay,
		}, log)
	})

	return nil
}

// Startup verifies the RPC node serves the configured chain and registers its health check.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	svc := blockchainDI.GetBalanceService(mono.Services())
	reader := blockchainDI.GetChainReader(mono.Services())

	id, err := svc.ChainID(ctx)
	if err != nil {
		// Reads retry on demand, so a slow node at boot is not fatal.
		log.Error(ctx, "failed to read chain id", "error", err)
	} else if id != cfg.Chain.ChainID {
		return fmt.Errorf("rpc node serves chain %d, expected %d", id, cfg.Chain.ChainID)
	}

	if hs := mono.Health(); hs != nil {
		hs.RegisterCheck("chain_rpc", func(ctx context.Context) (bool, string) {
			if reader.BreakerOpen() {
				return false, "circuit open"
			}
			id, err := reader.ChainID(ctx)
			if err != nil {
				return false, err.Error()
			}
			return id == cfg.Chain.ChainID, fmt.Sprintf("chain %d", id)
		})
	}

	log.Info(ctx, "blockchain module started", "chain_id", cfg.Chain.ChainID)
	return nil
}
