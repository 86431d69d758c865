// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/fd1az/artcoin-trader/business/blockchain/app"
	"github.com/fd1az/artcoin-trader/business/blockchain/infra/ethereum"
	"github.com/fd1az/artcoin-trader/internal/di"
)

// Public service tokens - exposed to other modules
var (
	BalanceService = di.NewToken[*app.BalanceService]("blockchain.BalanceService")
)

// Private dependency tokens - internal to blockchain module
var (
	ChainReader = di.NewToken[*ethereum.Reader]("blockchain:chainReader")
)

func GetBalanceService(c di.ServiceRegistry) *app.BalanceService {
	return di.GetToken(c, BalanceService)
}

func GetChainReader(c di.ServiceRegistry) *ethereum.Reader {
	return di.GetToken(c, ChainReader)
}
