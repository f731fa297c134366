package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/chain"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/aretw0/lattice/pkg/vars"
	"github.com/go-chi/chi/v5"
)

// ContextFactory creates the block context of one request.
type ContextFactory func(ctx context.Context, table *vars.Table) *block.Context

// Server exposes a block registry over HTTP. Every activation runs in a
// fresh variable table; sessions persist the serializable variables of a
// run through a ports.SnapshotStore.
type Server struct {
	registry *block.Registry
	contexts ContextFactory
	hooks    block.Hooks
	store    ports.SnapshotStore
	locker   ports.Locker
	metrics  http.Handler
	streams  *StreamManager
	logger   *slog.Logger
	timeout  time.Duration
	lockTTL  time.Duration
	version  string
}

// Option configures a Server.
type Option func(*Server)

// WithContextFactory sets how request contexts are created.
func WithContextFactory(f ContextFactory) Option {
	return func(s *Server) { s.contexts = f }
}

// WithHooks installs lifecycle hooks on every block the server runs.
func WithHooks(h block.Hooks) Option {
	return func(s *Server) { s.hooks = h }
}

// WithSessions enables the /sessions endpoints and the session field of
// run requests. locker serializes runs of the same session.
func WithSessions(store ports.SnapshotStore, locker ports.Locker) Option {
	return func(s *Server) {
		s.store = store
		s.locker = locker
	}
}

// WithMetrics serves h under /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithTimeout bounds every run. Zero means no limit besides the client's.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a server over reg.
func NewServer(reg *block.Registry, opts ...Option) *Server {
	s := &Server{
		registry: reg,
		logger:   logging.NewNop(),
		lockTTL:  time.Minute,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.contexts == nil {
		logger := s.logger
		s.contexts = func(ctx context.Context, table *vars.Table) *block.Context {
			return block.NewContext(ctx, table, block.WithLogger(logger))
		}
	}
	s.streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates the HTTP handler for reg.
func NewHandler(reg *block.Registry, opts ...Option) http.Handler {
	return NewServer(reg, opts...).Routes()
}

// Routes returns the chi router of s.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)

	r.Route("/blocks", func(r chi.Router) {
		r.Get("/", s.ListBlocks)
		r.Get("/{name}", s.GetBlock)
		r.Post("/{name}/activate", s.ActivateBlock)
	})
	r.Post("/chains/run", s.RunChain)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Get("/{id}", s.GetSession)
		r.Delete("/{id}", s.DeleteSession)
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Streams returns the event broadcaster of s.
func (s *Server) Streams() *StreamManager { return s.streams }

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]any{
		"app":      "lattice-http",
		"version":  s.version,
		"blocks":   len(s.registry.List()),
		"sessions": s.store != nil,
	})
}

// ListBlocks handles GET /blocks.
func (s *Server) ListBlocks(w http.ResponseWriter, r *http.Request) {
	names := s.registry.List()
	infos := make([]block.Info, 0, len(names))
	for _, name := range names {
		b, err := s.registry.Create(name)
		if err != nil {
			s.fail(w, http.StatusInternalServerError, err)
			return
		}
		infos = append(infos, block.Describe(b))
	}
	s.respond(w, http.StatusOK, infos)
}

// GetBlock handles GET /blocks/{name}.
func (s *Server) GetBlock(w http.ResponseWriter, r *http.Request) {
	b, err := s.registry.Create(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, http.StatusNotFound, err)
		return
	}
	s.respond(w, http.StatusOK, block.Describe(b))
}

// ActivateRequest is the body of POST /blocks/{name}/activate.
type ActivateRequest struct {
	Params  map[string]value.Value `json:"params,omitempty"`
	Input   value.Value            `json:"input"`
	Session string                 `json:"session,omitempty"`
}

// RunResponse is the body of a successful run.
type RunResponse struct {
	Output    value.Value            `json:"output"`
	Session   string                 `json:"session,omitempty"`
	Variables map[string]value.Value `json:"variables,omitempty"`
}

// ActivateBlock handles POST /blocks/{name}/activate: a one-shot warmup,
// activation and cleanup of a fresh block.
func (s *Server) ActivateBlock(w http.ResponseWriter, r *http.Request) {
	b, err := s.registry.Create(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, http.StatusNotFound, err)
		return
	}

	var req ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	inst := block.NewInstance(b, block.WithHooks(s.allHooks()))
	for name, v := range req.Params {
		if err := inst.SetParam(name, v); err != nil {
			s.fail(w, statusOf(err), err)
			return
		}
	}

	s.run(w, r, req.Session, func(ctx *block.Context) (value.Value, map[string]value.Value, error) {
		if err := inst.Warmup(ctx); err != nil {
			inst.Cleanup()
			return value.None(), nil, err
		}
		defer inst.Cleanup()

		out, err := inst.Activate(ctx, req.Input)
		if err != nil {
			return value.None(), nil, err
		}
		return out, ctx.Variables().Snapshot(), nil
	})
}

// RunChainRequest is the body of POST /chains/run. Chain uses the same
// layout as a YAML chain definition.
type RunChainRequest struct {
	Chain   json.RawMessage `json:"chain"`
	Input   value.Value     `json:"input"`
	Session string          `json:"session,omitempty"`
}

// RunChain handles POST /chains/run. The chain is validated before it runs.
func (s *Server) RunChain(w http.ResponseWriter, r *http.Request) {
	var req RunChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(req.Chain) == 0 {
		s.fail(w, http.StatusBadRequest, errors.New("missing chain"))
		return
	}

	// JSON is valid YAML.
	def, err := chain.ParseDefinition(req.Chain)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	c, err := def.Build(s.registry, chain.WithHooks(s.allHooks()))
	if err != nil {
		s.fail(w, statusOf(err), err)
		return
	}

	s.run(w, r, req.Session, func(ctx *block.Context) (value.Value, map[string]value.Value, error) {
		if err := c.Validate(value.Types{req.Input.Type()}, provided(ctx.Variables())); err != nil {
			return value.None(), nil, err
		}
		if err := c.Warmup(ctx); err != nil {
			return value.None(), nil, err
		}
		defer c.Cleanup()

		out, err := c.Activate(req.Input)
		if err != nil {
			return value.None(), nil, err
		}
		return out, c.Snapshot(), nil
	})
}

// provided describes the host variables already present in table.
func provided(table *vars.Table) block.Descriptor {
	var d block.Descriptor
	for _, name := range table.Names() {
		v, _ := table.Lookup(name)
		d = append(d, block.ExposedInfo{Name: name, Type: v.Type()})
	}
	return d
}

type runFunc func(ctx *block.Context) (value.Value, map[string]value.Value, error)

// run executes fn in a fresh table, restoring and saving the session
// snapshot around it when session is set.
func (s *Server) run(w http.ResponseWriter, r *http.Request, session string, fn runFunc) {
	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	table := vars.NewTable()
	if session == "" {
		out, _, err := fn(s.contexts(ctx, table))
		if err != nil {
			s.fail(w, statusOf(err), err)
			return
		}
		s.respond(w, http.StatusOK, RunResponse{Output: out})
		return
	}

	if s.store == nil {
		s.fail(w, http.StatusBadRequest, errors.New("sessions are not enabled"))
		return
	}

	unlock, err := s.locker.Lock(ctx, session, s.lockTTL)
	if err != nil {
		s.fail(w, statusOf(err), fmt.Errorf("failed to lock session %q: %w", session, err))
		return
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to unlock session", "session", session, "error", err)
		}
	}()

	snap, err := s.store.Load(ctx, session)
	switch {
	case errors.Is(err, ports.ErrSnapshotNotFound):
	case err != nil:
		s.fail(w, http.StatusInternalServerError, err)
		return
	default:
		table.Restore(snap)
	}

	out, snap, err := fn(s.contexts(ctx, table))
	if err != nil {
		s.fail(w, statusOf(err), err)
		return
	}
	if err := s.store.Save(ctx, session, snap); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	s.respond(w, http.StatusOK, RunResponse{Output: out, Session: session, Variables: snap})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsEnabled(w) {
		return
	}
	ids, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	s.respond(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsEnabled(w) {
		return
	}
	snap, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ports.ErrSnapshotNotFound) {
			status = http.StatusNotFound
		}
		s.fail(w, status, err)
		return
	}
	s.respond(w, http.StatusOK, snap)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsEnabled(w) {
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sessionsEnabled(w http.ResponseWriter) bool {
	if s.store == nil {
		s.fail(w, http.StatusNotFound, errors.New("sessions are not enabled"))
		return false
	}
	return true
}

// SubscribeEvents handles GET /events, streaming lifecycle events as SSE.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.fail(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := s.streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) allHooks() block.Hooks {
	return block.JoinHooks(s.hooks, s.streams.Hooks())
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	if err := writeJSON(w, status, v); err != nil {
		s.fail(w, http.StatusUnprocessableEntity, fault.Wrap(fault.KindShapeMismatch, err, "response is not serializable"))
	}
}
