package runs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
	"github.com/riskfabric/riskctl/internal/client"
)

const (
	// DefaultInterval is the fixed poll period. Observed run durations are
	// short (seconds), so there is no backoff: backing off would add
	// perceptible latency for an operator watching a status badge.
	DefaultInterval = 1500 * time.Millisecond

	// DefaultMaxConsecutiveFailures bounds how long the poller keeps
	// retrying through transport failures before declaring contact lost
	// (~30s of silence at the default interval).
	DefaultMaxConsecutiveFailures = 20
)

// ErrLostContact is returned when the configured number of consecutive
// polls failed at the transport level. The run itself is not failed; the
// client just cannot observe it anymore.
var ErrLostContact = errors.New("polling lost contact with the server")

// Fetcher re-reads the full run record. Every transition is discovered this
// way; nothing is inferred locally.
type Fetcher interface {
	GetRun(ctx context.Context, id int64) (*api.Run, error)
}

// Ticker abstracts the poll cadence so tests can drive virtual time.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type TickerFactory func(time.Duration) Ticker

type jitterTicker struct {
	ticker *jitterbug.Ticker
}

func (t *jitterTicker) Chan() <-chan time.Time { return t.ticker.C }
func (t *jitterTicker) Stop()                  { t.ticker.Stop() }

// NewJitterTicker is the production cadence: the fixed interval with a few
// milliseconds of jitter so many concurrent pollers do not align.
func NewJitterTicker(interval time.Duration) Ticker {
	return &jitterTicker{ticker: jitterbug.New(interval, &jitterbug.Norm{Stdev: 30 * time.Millisecond})}
}

// Poller observes a submitted run until a terminal status is seen or the
// caller cancels. For a single run id, polls are never issued concurrently:
// each tick's fetch resolves before the next is considered, so status
// observations cannot be applied out of order.
type Poller struct {
	fetcher     Fetcher
	interval    time.Duration
	maxFailures int
	newTicker   TickerFactory
	log         *zap.Logger
}

type Option func(*Poller)

func WithInterval(interval time.Duration) Option {
	return func(p *Poller) { p.interval = interval }
}

func WithMaxConsecutiveFailures(n int) Option {
	return func(p *Poller) { p.maxFailures = n }
}

func WithTickerFactory(factory TickerFactory) Option {
	return func(p *Poller) { p.newTicker = factory }
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Poller) { p.log = logger }
}

func NewPoller(fetcher Fetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:     fetcher,
		interval:    DefaultInterval,
		maxFailures: DefaultMaxConsecutiveFailures,
		newTicker:   NewJitterTicker,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait polls the run until it reaches a terminal status and returns the
// terminal record. Cancelling ctx stops observation without affecting the
// underlying run; calling Wait again later resumes from whatever status is
// currently on the server.
func (p *Poller) Wait(ctx context.Context, id int64) (*api.Run, error) {
	return p.Watch(ctx, id, nil)
}

// Watch is Wait with an observer invoked on every successful fetch,
// terminal included.
func (p *Poller) Watch(ctx context.Context, id int64, observe func(*api.Run)) (*api.Run, error) {
	ticker := p.newTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		run, err := p.fetcher.GetRun(ctx, id)
		switch {
		case err == nil:
			failures = 0
			if observe != nil {
				observe(run)
			}
			if run.Status.Terminal() {
				// terminal is sticky: no further poll is issued for this id
				return run, nil
			}
		case errors.Is(err, client.ErrUnauthorized):
			return nil, err
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			// a failed poll is "no new information this tick", not a FAILED
			// run; only the server transitions a run to FAILED
			failures++
			p.log.Debug("poll failed",
				zap.Int64("run_id", id),
				zap.Int("consecutive_failures", failures),
				zap.Error(err))
			if p.maxFailures > 0 && failures >= p.maxFailures {
				return nil, fmt.Errorf("run %d after %d consecutive poll failures: %w (last error: %v)", id, failures, ErrLostContact, err)
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.Chan():
		}
	}
}
