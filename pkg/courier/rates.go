package courier

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// ReasonTimeout is the failure reason recorded on quotes that did not
// complete within the rate-shopping deadline.
const ReasonTimeout = "TIMEOUT"

const (
	defaultPerProviderTimeout = 5 * time.Second
	defaultAggregateTimeout   = 8 * time.Second
)

// RateAggregator fans a rate request out to every registered provider and
// ranks the answers. Quotes are time-sensitive, so nothing is cached: every
// call re-queries all providers.
type RateAggregator struct {
	registry           *Registry
	perProviderTimeout time.Duration
	aggregateTimeout   time.Duration
}

// AggregatorOption configures a RateAggregator.
type AggregatorOption func(*RateAggregator)

// WithPerProviderTimeout overrides the per-provider quote deadline.
func WithPerProviderTimeout(d time.Duration) AggregatorOption {
	return func(a *RateAggregator) { a.perProviderTimeout = d }
}

// WithAggregateTimeout overrides the overall fan-out ceiling.
func WithAggregateTimeout(d time.Duration) AggregatorOption {
	return func(a *RateAggregator) { a.aggregateTimeout = d }
}

// NewRateAggregator creates an aggregator over the given registry.
func NewRateAggregator(registry *Registry, opts ...AggregatorOption) *RateAggregator {
	a := &RateAggregator{
		registry:           registry,
		perProviderTimeout: defaultPerProviderTimeout,
		aggregateTimeout:   defaultAggregateTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetBestRates queries every registered provider concurrently and returns
// one quote per provider: successful quotes first, sorted ascending by
// price, then failed quotes, both in registration order as the tie-break.
// Providers that do not answer within the deadline are reported as failed
// quotes with ReasonTimeout; their in-flight calls are abandoned.
func (a *RateAggregator) GetBestRates(ctx context.Context, req *ShipmentRequest) ([]RateQuote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	providers := a.registry.All()
	if len(providers) == 0 {
		return nil, ErrProviderNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.aggregateTimeout)
	defer cancel()

	quotes := make([]RateQuote, len(providers))
	g, ctx := errgroup.WithContext(ctx)

	for i, p := range providers {
		g.Go(func() error {
			pctx, pcancel := context.WithTimeout(ctx, a.perProviderTimeout)
			defer pcancel()

			ch := make(chan *RateQuote, 1)
			go func() {
				ch <- p.GetRate(pctx, req)
			}()

			select {
			case q := <-ch:
				quotes[i] = *q
			case <-pctx.Done():
				quotes[i] = RateQuote{
					Provider: p.Name(),
					Success:  false,
					Reason:   ReasonTimeout,
				}
			}
			return nil
		})
	}
	g.Wait()

	// Stable sort keeps registration order as the tie-break and leaves
	// failed quotes trailing in registration order.
	sort.SliceStable(quotes, func(i, j int) bool {
		if quotes[i].Success != quotes[j].Success {
			return quotes[i].Success
		}
		if !quotes[i].Success {
			return false
		}
		return quotes[i].Price < quotes[j].Price
	})

	return quotes, nil
}
