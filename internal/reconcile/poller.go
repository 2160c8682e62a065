// Package reconcile implements the pull half of payment confirmation: a
// watcher that polls the gateway for each open order until the order goes
// terminal or a wall-clock ceiling passes. The poller never decides an
// outcome itself; it only feeds gateway status into the same compare-and-set
// transition the webhook uses, so the two paths cannot disagree.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamverse/superchat-backend/internal/domain"
)

// Confirmer is the slice of the payment service the poller needs.
type Confirmer interface {
	ConfirmFromGateway(ctx context.Context, orderRef string) (*domain.Order, error)
}

const (
	// DefaultInterval is the gap between status checks for one order.
	DefaultInterval = 3 * time.Second
	// DefaultTimeout is the per-order polling ceiling. After it passes the
	// poller gives up; the order stays open so a late webhook can still
	// settle it.
	DefaultTimeout = 3 * time.Minute
)

// Poller watches open orders. One goroutine per watched order; all of them
// stop when the parent context is cancelled.
type Poller struct {
	Payments Confirmer
	Interval time.Duration
	Timeout  time.Duration
	Log      zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// Start binds the poller to ctx. Watch calls before Start are rejected.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.started = true
}

// Stop cancels every in-flight watch and waits for the goroutines to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.started = false
	p.mu.Unlock()
	p.wg.Wait()
}

// Watch begins polling orderRef in the background. It returns immediately.
func (p *Poller) Watch(orderRef string) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		p.Log.Warn().Str("order_ref", orderRef).Msg("poller not started, watch dropped")
		return
	}
	ctx := p.ctx
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		p.run(ctx, orderRef)
	}()
}

func (p *Poller) run(ctx context.Context, orderRef string) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			// Give up without closing the order. The webhook or the
			// stale-order sweep owns it from here.
			p.Log.Info().Str("order_ref", orderRef).Msg("poll ceiling reached, order left open")
			return
		case <-tick.C:
			o, err := p.Payments.ConfirmFromGateway(ctx, orderRef)
			if err != nil {
				p.Log.Warn().Err(err).Str("order_ref", orderRef).Msg("status poll failed")
				continue
			}
			if o.Terminal() {
				p.Log.Info().
					Str("order_ref", orderRef).
					Str("status", o.Status).
					Msg("order settled by poll")
				return
			}
		}
	}
}
