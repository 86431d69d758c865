// Package di contains dependency injection tokens for the trading context.
package di

import (
	"github.com/fd1az/artcoin-trader/business/trading/app"
	"github.com/fd1az/artcoin-trader/business/trading/infra/api"
	"github.com/fd1az/artcoin-trader/business/trading/infra/provider"
	"github.com/fd1az/artcoin-trader/business/trading/infra/wallet"
	"github.com/fd1az/artcoin-trader/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Trader    = di.NewToken[*app.Trader]("trading.Trader")
	APIServer = di.NewToken[*api.Server]("trading.APIServer")
)

// Private dependency tokens - internal to trading module
var (
	WalletSession = di.NewToken[*wallet.Session]("trading:walletSession")
	Provider      = di.NewToken[*provider.HTTPProvider]("trading:provider")
	Decimals      = di.NewToken[*app.DecimalsResolver]("trading:decimals")
	Engine        = di.NewToken[*app.Engine]("trading:engine")
)

func GetTrader(c di.ServiceRegistry) *app.Trader {
	return di.GetToken(c, Trader)
}

func GetAPIServer(c di.ServiceRegistry) *api.Server {
	return di.GetToken(c, APIServer)
}

// GetWalletSession returns nil when no wallet session URL is configured.
func GetWalletSession(c di.ServiceRegistry) *wallet.Session {
	return di.GetToken(c, WalletSession)
}

func GetProvider(c di.ServiceRegistry) *provider.HTTPProvider {
	return di.GetToken(c, Provider)
}

func GetDecimals(c di.ServiceRegistry) *app.DecimalsResolver {
	return di.GetToken(c, Decimals)
}

func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}
