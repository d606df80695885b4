package enrichment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
	"github.com/riskfabric/riskctl/internal/client"
)

const (
	// DefaultMaxAttempts is the total attempt budget, the first request
	// included, while the queued placeholder persists.
	DefaultMaxAttempts = 3
	DefaultDelay       = 2 * time.Second
)

// PacketClient issues one underwriting packet request.
type PacketClient interface {
	UnderwritingPacket(ctx context.Context, req api.UnderwritingPacketRequest) (*client.PacketResult, error)
}

// Outcome is the user-visible end state of a packet request, possibly after
// automatic retries. Exactly one of Packet and Queued is set. A Queued
// outcome after attempt exhaustion is not a failure; it means the packet is
// still being enriched and needs a manual refresh.
type Outcome struct {
	Packet *api.UnderwritingPacket
	Queued *api.EnrichmentQueued
	// RequestID is the correlation id of the last attempt: every retry is
	// a distinct server-side request with its own id.
	RequestID string
	// AutoRetries counts the automatic re-submissions performed beyond the
	// initial request.
	AutoRetries int
}

// Retrier wraps the logically-synchronous underwriting packet operation the
// server may defer into an asynchronous enrichment run. While the server
// answers with the queued placeholder, the identical request is re-sent a
// bounded number of times, spaced by a fixed delay, but only when the
// caller opted into waiting: every retry consumes backend capacity, so
// waiting is strictly opt-in.
type Retrier struct {
	client      PacketClient
	maxAttempts int
	delay       time.Duration
	after       func(time.Duration) <-chan time.Time
	log         *zap.Logger

	mu   sync.Mutex
	last *api.UnderwritingPacketRequest
}

type Option func(*Retrier)

func WithMaxAttempts(n int) Option {
	return func(r *Retrier) { r.maxAttempts = n }
}

func WithDelay(delay time.Duration) Option {
	return func(r *Retrier) { r.delay = delay }
}

// WithAfter replaces the delay timer, letting tests advance virtual time.
func WithAfter(after func(time.Duration) <-chan time.Time) Option {
	return func(r *Retrier) { r.after = after }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Retrier) { r.log = logger }
}

func New(packetClient PacketClient, opts ...Option) *Retrier {
	r := &Retrier{
		client:      packetClient,
		maxAttempts: DefaultMaxAttempts,
		delay:       DefaultDelay,
		after:       time.After,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Request submits the packet request once and, if the server deferred it
// and the request carries a positive wait budget, re-submits the identical
// payload until a packet or an error arrives or the attempt budget is
// spent. The last-seen placeholder is surfaced when the budget runs out.
func (r *Retrier) Request(ctx context.Context, req api.UnderwritingPacketRequest) (*Outcome, error) {
	r.mu.Lock()
	r.last = &req
	r.mu.Unlock()

	waitRequested := req.WaitForEnrichmentSeconds > 0
	return r.attempt(ctx, req, waitRequested)
}

// Refresh re-issues the exact last payload, independent of and resetting
// the automatic retry counter. It fails if nothing was requested yet.
func (r *Retrier) Refresh(ctx context.Context) (*Outcome, error) {
	r.mu.Lock()
	last := r.last
	r.mu.Unlock()
	if last == nil {
		return nil, fmt.Errorf("nothing to refresh: no packet requested yet")
	}
	return r.attempt(ctx, *last, last.WaitForEnrichmentSeconds > 0)
}

func (r *Retrier) attempt(ctx context.Context, req api.UnderwritingPacketRequest, waitRequested bool) (*Outcome, error) {
	outcome := &Outcome{}
	for attempt := 1; ; attempt++ {
		result, err := r.client.UnderwritingPacket(ctx, req)
		if err != nil {
			// an error from any attempt, retry included, stops the cycle
			return nil, err
		}
		outcome.RequestID = result.RequestID()
		outcome.AutoRetries = attempt - 1

		if packet, ok := result.Packet(); ok {
			outcome.Packet = packet
			return outcome, nil
		}

		queued, _ := result.Queued()
		outcome.Queued = queued
		if !waitRequested || attempt >= r.maxAttempts {
			return outcome, nil
		}

		r.log.Debug("enrichment queued, retrying",
			zap.Int64("run_id", queued.RunId),
			zap.Int("attempt", attempt),
			zap.Duration("delay", r.delay))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-r.after(r.delay):
		}
	}
}
