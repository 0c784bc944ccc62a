package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"
)

// poller fires tick on every interval until stopped. Each tick gets a
// sequence number, increasing from 1, so that late completions of older
// ticks can be told apart from newer ones.
type poller struct {
	ticker clock.Ticker
	cancel context.CancelFunc
	wg     sync.WaitGroup
	seq    atomic.Uint64
}

// startPoller creates the ticker before returning, so a clock step that
// happens right after is never missed. tick runs on its own goroutine and
// must not block the loop.
func startPoller(c clock.WithTicker, interval time.Duration, tick func(ctx context.Context, seq uint64)) *poller {
	ctx, cancel := context.WithCancel(context.Background())
	p := &poller{
		ticker: c.NewTicker(interval),
		cancel: cancel,
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx, tick)
	}()
	return p
}

func (p *poller) run(ctx context.Context, tick func(context.Context, uint64)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.ticker.C():
			seq := p.seq.Add(1)
			go tick(ctx, seq)
		}
	}
}

// stop cancels outstanding ticks and waits for the loop to exit. It does
// not wait for in-flight checks; their results are fenced by the caller.
func (p *poller) stop() {
	p.cancel()
	p.ticker.Stop()
	p.wg.Wait()
}
