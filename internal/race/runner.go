package race

import (
	"context"
	"errors"

	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/scheduler"
)

// Runner owns the engine lifetime: it loads the descriptor, builds an engine
// and replaces it with a freshly loaded one on every resync.
type Runner struct {
	client Client
	view   View
	sched  *scheduler.Scheduler
	opts   Options

	engine  *Engine
	loads   *scheduler.Group
	resyncs int
}

// NewRunner returns a runner. Nothing happens until Start or Run.
func NewRunner(client Client, view View, sched *scheduler.Scheduler, opts Options) (*Runner, error) {
	if client == nil {
		return nil, errors.New("race runner requires a client")
	}
	if view == nil {
		return nil, errors.New("race runner requires a view")
	}
	if sched == nil {
		return nil, errors.New("race runner requires a scheduler")
	}
	return &Runner{
		client: client,
		view:   view,
		sched:  sched,
		opts:   opts.withDefaults(),
	}, nil
}

// Run starts the first load and drives the scheduler until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	r.sched.Post(r.Start)
	return r.sched.Run(ctx)
}

// Start queues the first load. It must run on the scheduler goroutine.
func (r *Runner) Start() {
	r.load()
}

// Do runs fn against the current engine on the scheduler goroutine. It is
// dropped while no engine is loaded.
func (r *Runner) Do(fn func(*Engine)) {
	r.sched.Post(func() {
		if r.engine == nil || r.engine.Stopped() {
			return
		}
		fn(r.engine)
	})
}

// Engine returns the current engine, or nil while loading.
func (r *Runner) Engine() *Engine {
	return r.engine
}

// Resyncs returns how many times the engine was rebuilt.
func (r *Runner) Resyncs() int {
	return r.resyncs
}

func (r *Runner) load() {
	if r.loads != nil {
		r.loads.Cancel()
	}
	r.loads = r.sched.NewGroup()
	group := r.loads
	r.view.Render(Snapshot{Role: r.opts.Role, Loading: true})
	group.Go(func(ctx context.Context) func() {
		desc, err := r.client.Load(ctx)
		return func() {
			if err != nil {
				r.opts.Logger.Error().Err(err).Dur("retry", r.opts.LoadRetry).Msg("failed to load competition")
				group.After(r.opts.LoadRetry, r.load)
				return
			}
			r.install(desc)
		}
	})
}

func (r *Runner) install(desc model.Descriptor) {
	engine, err := NewEngine(desc, r.client, r.view, r.sched, r.opts, r.resync)
	if err != nil {
		r.opts.Logger.Error().Err(err).Msg("failed to build race engine")
		return
	}
	r.engine = engine
	engine.Start()
}

func (r *Runner) resync(reason string) {
	r.resyncs++
	r.engine = nil
	r.opts.Logger.Info().Str("reason", reason).Int("resyncs", r.resyncs).Msg("reloading competition")
	r.load()
}
