package delivery

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hybridz/tgstream/internal/telegram"
)

// DefaultInterval is the pause between poll cycles when none is configured.
const DefaultInterval = 2 * time.Second

// UpdateFetcher fetches one batch of updates. *telegram.Client satisfies it;
// tests substitute scripted fakes.
type UpdateFetcher interface {
	GetUpdates(ctx context.Context, params telegram.GetUpdatesParams) ([]telegram.Update, error)
}

// State is the polling engine's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
	StateDelivering
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateDelivering:
		return "delivering"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Poller repeatedly fetches update batches, classifies them, routes them
// through a Router, and advances its cursor past the highest id seen.
//
// Fetch failures (transport errors and {ok:false} envelopes alike) are
// surfaced through the router's error fan-out and never stop the loop; the
// next cycle runs on the normal schedule with no backoff.
type Poller struct {
	Fetcher UpdateFetcher
	Router  *Router

	// getUpdates options. Limit and Timeout of zero let the API defaults
	// apply; AllowedUpdates nil requests all kinds.
	Limit          int
	Timeout        int
	AllowedUpdates []string

	// Interval between cycles. Floored at one second; zero means
	// DefaultInterval.
	Interval time.Duration

	cursor Cursor

	mu    sync.Mutex
	state State
}

// State returns the engine's current lifecycle state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Offset returns the next offset the poller will request. The cursor
// survives stop/restart within the same Poller.
func (p *Poller) Offset() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor.Current()
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// transition moves from one state to another only if the engine is still in
// from. It returns false when another cycle holds the engine, which keeps
// overlapping cycles out by construction.
func (p *Poller) transition(from, to State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != from {
		return false
	}
	p.state = to
	return true
}

// Run polls until ctx is cancelled, fetching one batch per cycle: once
// immediately, then on the configured interval. It returns ctx.Err() on
// cancellation. Run may be called again after it returns; the cursor is
// preserved across restarts.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	if interval < time.Second {
		interval = time.Second
	}

	p.setState(StateIdle)
	defer p.setState(StateStopped)

	p.cycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

// cycle performs one fetch-classify-route-advance pass.
func (p *Poller) cycle(ctx context.Context) {
	if !p.transition(StateIdle, StateAwaitingResponse) {
		return
	}

	updates, err := p.Fetcher.GetUpdates(ctx, telegram.GetUpdatesParams{
		Offset:         p.Offset(),
		Limit:          p.Limit,
		Timeout:        p.Timeout,
		AllowedUpdates: p.AllowedUpdates,
	})

	// A fetch that completes after cancellation is discarded, not routed.
	if ctx.Err() != nil {
		p.transition(StateAwaitingResponse, StateIdle)
		return
	}

	if err != nil {
		p.Router.EmitError(err)
		p.transition(StateAwaitingResponse, StateIdle)
		return
	}

	if len(updates) == 0 {
		p.transition(StateAwaitingResponse, StateIdle)
		return
	}

	p.transition(StateAwaitingResponse, StateDelivering)

	for _, u := range updates {
		tagged, ok := Classify(u)
		if !ok {
			// Unrecognized update: dropped, but the cursor still advances
			// past it below so it is not fetched again forever.
			log.Printf("poller: dropping update %d with no recognized payload", u.UpdateID)
			continue
		}
		p.Router.Emit(tagged)
	}

	p.mu.Lock()
	p.cursor.Advance(updates)
	p.mu.Unlock()

	p.transition(StateDelivering, StateIdle)
}
