package provider

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"textlens/internal/metrics"

	"github.com/rs/zerolog"
)

// Aggregator fans one text request out to every registered analyzer and
// merges the replies into a deterministically ordered list.
type Aggregator struct {
	analyzers []Analyzer
	timeout   time.Duration
	metrics   *metrics.Collector
	log       zerolog.Logger
}

// NewAggregator builds an aggregator over the given analyzers. Results are
// always returned in registration order, regardless of which provider
// finishes first. timeout bounds each individual provider call; zero disables
// the deadline.
func NewAggregator(timeout time.Duration, collector *metrics.Collector, log zerolog.Logger, analyzers ...Analyzer) *Aggregator {
	return &Aggregator{
		analyzers: analyzers,
		timeout:   timeout,
		metrics:   collector,
		log:       log,
	}
}

// ProcessText invokes every analyzer concurrently and waits for all of them.
// A failing provider degrades to a null response in its slot; it never aborts
// the sibling calls and never surfaces as an error to the caller.
func (a *Aggregator) ProcessText(ctx context.Context, text string) []Result {
	results := make([]Result, len(a.analyzers))

	g, ctx := errgroup.WithContext(ctx)
	for i, analyzer := range a.analyzers {
		i, analyzer := i, analyzer
		g.Go(func() error {
			callCtx := ctx
			if a.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, a.timeout)
				defer cancel()
			}

			start := time.Now()
			response, err := analyzer.Analyze(callCtx, text)
			a.metrics.RecordProviderCall(analyzer.Name(), err, time.Since(start))
			if err != nil {
				a.log.Warn().
					Str("provider", analyzer.Name()).
					Err(err).
					Msg("text provider call failed")
				results[i] = Result{Provider: analyzer.Name(), Err: err}
				return nil
			}
			results[i] = Result{Provider: analyzer.Name(), Response: &response}
			return nil
		})
	}
	// Goroutines always return nil; Wait is only the join point.
	_ = g.Wait()
	return results
}

// Providers lists the registered provider names in result order.
func (a *Aggregator) Providers() []string {
	names := make([]string, len(a.analyzers))
	for i, analyzer := range a.analyzers {
		names[i] = analyzer.Name()
	}
	return names
}
