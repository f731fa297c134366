package block

import (
	"context"
	"log/slog"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/offload"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/aretw0/lattice/pkg/vars"
	"github.com/google/uuid"
)

// Offloader runs blocking calls away from the activating goroutine.
type Offloader interface {
	Do(ctx context.Context, fn offload.Func) (value.Value, error)
}

// Context is the execution context handed to Warmup and Activate. It is
// owned by the host and shared by every block of one graph execution.
type Context struct {
	ctx       context.Context
	variables *vars.Table
	logger    *slog.Logger
	offloader Offloader
	id        string
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLogger sets the logger passed to blocks.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *Context) {
		c.logger = logger
	}
}

// WithOffloader sets the pool used by Await.
func WithOffloader(o Offloader) ContextOption {
	return func(c *Context) {
		c.offloader = o
	}
}

// WithID overrides the generated context id.
func WithID(id string) ContextOption {
	return func(c *Context) {
		c.id = id
	}
}

// NewContext creates an execution context. A nil table gets a fresh root
// scope.
func NewContext(parent context.Context, table *vars.Table, opts ...ContextOption) *Context {
	if parent == nil {
		parent = context.Background()
	}
	if table == nil {
		table = vars.NewTable()
	}

	c := &Context{
		ctx:       parent,
		variables: table,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	if c.offloader == nil {
		c.offloader = offload.NewPool(offload.DefaultSize)
	}
	if c.id == "" {
		c.id = uuid.NewString()
	}
	c.logger = c.logger.With("context_id", c.id)
	return c
}

// Context returns the Go context that cancels this execution.
func (c *Context) Context() context.Context { return c.ctx }

// Variables returns the variable scope of the execution.
func (c *Context) Variables() *vars.Table { return c.variables }

func (c *Context) Logger() *slog.Logger { return c.logger }

func (c *Context) ID() string { return c.id }

// Err reports whether the execution was cancelled.
func (c *Context) Err() error { return c.ctx.Err() }

// Await offloads fn and suspends the activation until it completes or the
// execution is cancelled. On cancellation the result of fn is discarded.
func (c *Context) Await(fn offload.Func) (value.Value, error) {
	return c.offloader.Do(c.ctx, fn)
}

// WithVariables returns a copy of c that resolves variables in table.
func (c *Context) WithVariables(table *vars.Table) *Context {
	out := *c
	out.variables = table
	return &out
}
