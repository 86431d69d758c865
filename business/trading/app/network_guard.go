package app

import (
	"context"
	"strconv"
	"time"

	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/logger"
)

// NetworkGuard makes sure the wallet session is on the required chain
// before anything is spent. It asks for at most one switch per call.
type NetworkGuard struct {
	session  WalletSession
	switcher ChainSwitcher
	required uint64
	settle   time.Duration
	logger   logger.LoggerInterface

	// sleep waits out the settle delay; tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewNetworkGuard creates a guard. switcher may be nil when the session
// cannot change networks.
func NewNetworkGuard(session WalletSession, switcher ChainSwitcher, required uint64, settle time.Duration, log logger.LoggerInterface) *NetworkGuard {
	return &NetworkGuard{
		session:  session,
		switcher: switcher,
		required: required,
		settle:   settle,
		logger:   log,
		sleep:    sleepCtx,
	}
}

// Ensure returns nil when the session is on the required chain, switching
// once if needed. Otherwise it returns NETWORK_MISMATCH.
func (g *NetworkGuard) Ensure(ctx context.Context) error {
	current, err := g.session.ChainID(ctx)
	if err != nil {
		return err
	}
	if current == g.required {
		return nil
	}

	if g.switcher == nil {
		return g.mismatch(current, nil)
	}

	g.logger.Info(ctx, "switching wallet network",
		"current", current,
		"required", g.required)

	if err := g.switcher.SwitchChain(ctx, g.required); err != nil {
		return g.mismatch(current, err)
	}

	if err := g.sleep(ctx, g.settle); err != nil {
		return err
	}

	// The switch reply is not trusted; the session is asked again.
	current, err = g.session.ChainID(ctx)
	if err != nil {
		return g.mismatch(0, err)
	}
	if current != g.required {
		return g.mismatch(current, nil)
	}

	return nil
}

func (g *NetworkGuard) mismatch(current uint64, cause error) *apperror.AppError {
	opts := []apperror.Option{
		apperror.WithDetail("required_chain_id", strconv.FormatUint(g.required, 10)),
	}
	if current != 0 {
		opts = append(opts, apperror.WithDetail("current_chain_id", strconv.FormatUint(current, 10)))
	}
	if cause != nil {
		opts = append(opts, apperror.WithCause(cause))
	}
	return apperror.New(apperror.CodeNetworkMismatch, opts...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
