// Package mcp exposes the registered blocks as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/internal/presentation/docs"
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/chain"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/aretw0/lattice/pkg/vars"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	catalogURI  = "lattice://blocks"
	markdownURI = "lattice://blocks.md"
)

// Server wraps a block registry and exposes it as an MCP server.
//
// Every block that needs no context variables and accepts text or bytes
// becomes a tool named after the block, with dots replaced by underscores
// (Hash.Sha2-256 becomes Hash_Sha2-256).
type Server struct {
	registry  *block.Registry
	hooks     block.Hooks
	logger    *slog.Logger
	timeout   time.Duration
	tools     []string
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithHooks installs lifecycle hooks on every block a tool runs.
func WithHooks(h block.Hooks) Option {
	return func(s *Server) { s.hooks = h }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithTimeout bounds every tool call.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// NewServer creates a new MCP server over reg.
func NewServer(reg *block.Registry, version string, opts ...Option) *Server {
	s := &Server{
		registry:  reg,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("lattice-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Tools returns the names of the registered tools.
func (s *Server) Tools() []string { return slices.Clone(s.tools) }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ToolName returns the tool name of a block.
func ToolName(blockName string) string {
	return strings.ReplaceAll(blockName, ".", "_")
}

// Exposable reports whether b can run as a standalone tool.
func Exposable(b block.Block) bool {
	if len(b.RequiredVariables()) > 0 || len(b.ExposedVariables()) > 0 {
		return false
	}
	return slices.ContainsFunc(b.InputTypes(), func(t value.Type) bool {
		return !t.Variable && (t.Kind == value.KindString || t.Kind == value.KindBytes)
	})
}

func (s *Server) registerTools() {
	for _, name := range s.registry.List() {
		b, err := s.registry.Create(name)
		if err != nil || !Exposable(b) {
			continue
		}
		tool := mcp.NewTool(ToolName(name),
			mcp.WithDescription(b.Help()),
			mcp.WithString("input", mcp.Required(), mcp.Description("The block input, accepted types: "+b.InputTypes().Name())),
			mcp.WithString("encoding", mcp.Description("How input is encoded: utf8 (default) or hex"), mcp.Enum("utf8", "hex")),
			mcp.WithString("params", mcp.Description("JSON object of parameter values in wire form, e.g. {\"Width\":{\"kind\":\"int\",\"value\":4}}")),
		)
		s.mcpServer.AddTool(tool, s.handleBlock(name))
		s.tools = append(s.tools, tool.Name)
	}

	s.mcpServer.AddTool(mcp.NewTool("describe_block",
		mcp.WithDescription("Describe a block: its types, parameters and variables."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The block name, e.g. Physics.Impulse")),
	), s.handleDescribe)
	s.tools = append(s.tools, "describe_block")

	s.mcpServer.AddTool(mcp.NewTool("run_chain",
		mcp.WithDescription("Validate and run a chain definition once."),
		mcp.WithString("chain", mcp.Required(), mcp.Description("The chain definition as YAML or JSON")),
		mcp.WithString("input", mcp.Description("The chain input in wire form, e.g. {\"kind\":\"float3\",\"value\":[0,1,0]}")),
	), s.handleRunChain)
	s.tools = append(s.tools, "run_chain")
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(catalogURI, "Block Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.describeAll())
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: catalogURI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(markdownURI, "Block Reference",
		mcp.WithMIMEType("text/markdown"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: markdownURI, MIMEType: "text/markdown", Text: docs.Catalog(s.describeAll())},
		}, nil
	})
}

func (s *Server) describeAll() []block.Info {
	names := s.registry.List()
	infos := make([]block.Info, 0, len(names))
	for _, name := range names {
		if b, err := s.registry.Create(name); err == nil {
			infos = append(infos, block.Describe(b))
		}
	}
	return infos
}

func (s *Server) handleBlock(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := s.registry.Create(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		raw, err := request.RequireString("input")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		input, err := decodeInput(b, raw, request.GetString("encoding", "utf8"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		inst := block.NewInstance(b, block.WithHooks(s.hooks))
		if params := request.GetString("params", ""); params != "" {
			var values map[string]value.Value
			if err := json.Unmarshal([]byte(params), &values); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid params: %v", err)), nil
			}
			for pname, v := range values {
				if err := inst.SetParam(pname, v); err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
			}
		}

		ctx, cancel := s.bound(ctx)
		defer cancel()
		bctx := block.NewContext(ctx, vars.NewTable(), block.WithLogger(s.logger))

		err = inst.Warmup(bctx)
		defer inst.Cleanup()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, err := inst.Activate(bctx, input)
		if err != nil {
			s.logger.Debug("MCP tool failed", "tool", ToolName(name), "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return result(out)
	}
}

func (s *Server) handleDescribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.registry.Create(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(docs.Markdown(block.Describe(b))), nil
}

func (s *Server) handleRunChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := request.RequireString("chain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	def, err := chain.ParseDefinition([]byte(src))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := def.Build(s.registry, chain.WithHooks(s.hooks))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	input := value.None()
	if raw := request.GetString("input", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid input: %v", err)), nil
		}
	}
	if err := c.Validate(value.Types{input.Type()}, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()
	out, err := c.Run(block.NewContext(ctx, nil, block.WithLogger(s.logger)), input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return result(out)
}

func (s *Server) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// decodeInput turns the textual tool argument into the value the block
// accepts. Hex input always becomes bytes.
func decodeInput(b block.Block, raw, encoding string) (value.Value, error) {
	accepts := b.InputTypes()
	switch encoding {
	case "hex":
		data, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
		if err != nil {
			return value.None(), fmt.Errorf("invalid hex input: %w", err)
		}
		v := value.Bytes(data)
		if !accepts.Accepts(v) {
			return value.None(), fmt.Errorf("%s does not accept bytes", b.Name())
		}
		return v, nil
	case "", "utf8":
		if v := value.String(raw); accepts.Accepts(v) {
			return v, nil
		}
		return value.Bytes([]byte(raw)), nil
	default:
		return value.None(), fmt.Errorf("unknown encoding %q", encoding)
	}
}

// result renders a block output as tool text: bytes as 0x prefixed hex,
// strings verbatim and everything else in wire form.
func result(out value.Value) (*mcp.CallToolResult, error) {
	if b, err := out.AsBytes(); err == nil {
		return mcp.NewToolResultText("0x" + hex.EncodeToString(b)), nil
	}
	if str, err := out.AsString(); err == nil {
		return mcp.NewToolResultText(str), nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(errors.Join(errors.New("output is not serializable"), err).Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
