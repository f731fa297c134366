package lattice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/pkg/adapters/file"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/adapters/process"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/blocks"
	"github.com/aretw0/lattice/pkg/blocks/browse"
	physicsblocks "github.com/aretw0/lattice/pkg/blocks/physics"
	"github.com/aretw0/lattice/pkg/chain"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/offload"
	"github.com/aretw0/lattice/pkg/physics"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/vars"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is the release of the lattice module.
var Version = "0.1.0"

// Runtime is the high-level entry point for hosts embedding lattice. It
// owns a registry with every built-in block, the worker pool blocking
// blocks offload to, and the metrics fed by block lifecycle hooks.
type Runtime struct {
	config     config.Config
	registry   *block.Registry
	pool       *offload.Pool
	logger     *slog.Logger
	metrics    *observability.Metrics
	prometheus *prometheus.Registry
	hooks      block.Hooks
	opener     browse.Opener
	httpClient *http.Client
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(r *Runtime) {
		r.config = cfg
	}
}

// WithLogger sets the logger. It defaults to one built from the
// configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithHooks adds lifecycle hooks next to the metrics and log hooks.
func WithHooks(h block.Hooks) Option {
	return func(r *Runtime) {
		r.hooks = block.JoinHooks(r.hooks, h)
	}
}

// WithOpener sets how Browse opens URLs.
func WithOpener(o browse.Opener) Option {
	return func(r *Runtime) {
		r.opener = o
	}
}

// WithHTTPClient sets the client used by Http.Get.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runtime) {
		r.httpClient = c
	}
}

// New creates a runtime. Without options it runs on config.Default().
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{config: config.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	if r.logger == nil {
		r.logger = r.config.Logger()
	}

	if r.opener == nil {
		cmds, err := process.LoadCommands(r.config.Commands)
		if err != nil {
			return nil, err
		}
		r.opener = process.NewLauncher(process.WithCommands(cmds))
	}

	r.prometheus = prometheus.NewRegistry()
	if err := r.prometheus.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	metrics, err := observability.NewMetrics(r.prometheus)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	r.metrics = metrics
	r.hooks = block.JoinHooks(metrics.Hooks(), observability.LogHooks(r.logger), r.hooks)

	gravity, err := physics.ParseVec3(r.config.Physics.Gravity)
	if err != nil {
		return nil, fmt.Errorf("invalid gravity: %w", err)
	}
	r.registry = block.NewRegistry()
	err = blocks.RegisterAll(r.registry, blocks.Options{
		Opener:     r.opener,
		HTTPClient: r.httpClient,
		Simulation: []physicsblocks.SimulationOption{
			physicsblocks.WithGravity(gravity),
			physicsblocks.WithTimeStep(r.config.Physics.TimeStep),
		},
	})
	if err != nil {
		return nil, err
	}

	r.pool = offload.NewPool(r.config.Workers)
	return r, nil
}

func (r *Runtime) Config() config.Config { return r.config }

func (r *Runtime) Registry() *block.Registry { return r.registry }

func (r *Runtime) Logger() *slog.Logger { return r.logger }

// Hooks returns the lifecycle hooks every runtime chain is built with.
func (r *Runtime) Hooks() block.Hooks { return r.hooks }

func (r *Runtime) Metrics() *observability.Metrics { return r.metrics }

// MetricsHandler serves the runtime metrics in the Prometheus text format.
func (r *Runtime) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(r.prometheus, promhttp.HandlerOpts{})
}

// NewContext creates a block context bound to the runtime logger and
// worker pool. A nil table gets a fresh root scope.
func (r *Runtime) NewContext(ctx context.Context, table *vars.Table, opts ...block.ContextOption) *block.Context {
	base := []block.ContextOption{block.WithLogger(r.logger), block.WithOffloader(r.pool)}
	return block.NewContext(ctx, table, append(base, opts...)...)
}

// NewChain creates a chain from blocks with the runtime hooks installed.
func (r *Runtime) NewChain(blocks []block.Block, opts ...chain.Option) *chain.Chain {
	return chain.New(blocks, append([]chain.Option{chain.WithHooks(r.hooks)}, opts...)...)
}

// LoadChain reads a chain definition file and builds it.
func (r *Runtime) LoadChain(path string) (*chain.Chain, error) {
	def, err := chain.LoadDefinition(path)
	if err != nil {
		return nil, err
	}
	return def.Build(r.registry, chain.WithHooks(r.hooks))
}

// Sessions opens the snapshot store and locker selected by the
// configuration. The returned closer releases connections.
func (r *Runtime) Sessions() (ports.SnapshotStore, ports.Locker, io.Closer, error) {
	cfg := r.config.Store
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), memory.NewLocker(), nopCloser{}, nil
	case config.DriverFile:
		return file.New(cfg.Path), memory.NewLocker(), nopCloser{}, nil
	case config.DriverRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		return store, redis.NewLocker(store.Client(), cfg.Redis.Prefix), store, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Close waits for offloaded work to finish.
func (r *Runtime) Close() error {
	r.pool.Wait()
	return nil
}
