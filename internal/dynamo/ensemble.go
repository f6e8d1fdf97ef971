package dynamo

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs the same setup from several initial states in parallel. build
// must return a fresh Simulator on every call; systems and engines may be
// shared, integrators and controllers may not.
type Ensemble struct {
	build   func() (*Simulator, error)
	workers int
}

func NewEnsemble(build func() (*Simulator, error), workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ensemble{build: build, workers: workers}
}

// Run returns one result per start, in order. The first failing build or run
// cancels the rest.
func (e *Ensemble) Run(ctx context.Context, starts []State, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(starts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, x0 := range starts {
		i, x0 := i, x0
		g.Go(func() error {
			sim, err := e.build()
			if err != nil {
				return err
			}
			res, err := sim.Run(ctx, x0, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
