// Package host wires a mcp.Server with an example catalog and starts it
// over the configured transport. It exists so cmd/mcprtd's cobra commands
// stay thin wrappers around testable functions.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/modelcontextprotocol/mcp-runtime-go/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoadConfig reads the host's configuration, defaulting when configPath is
// empty.
func LoadConfig(configPath string) (*mcp.HostConfig, error) {
	return mcp.LoadHostConfig(configPath)
}

// NewLogger builds the slog.Logger the rest of the host uses, writing JSON
// records to stdout or, if cfg.LogFile is set, to a lumberjack-rotated file.
func NewLogger(cfg *mcp.HostConfig) *slog.Logger {
	var writer io.Writer = os.Stdout
	if cfg.LogFile != "" {
		writer = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			Compress:   true,
		}
	}
	level := new(slog.LevelVar)
	level.Set(levelFor(cfg.LogLevel))
	return slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level}))
}

func levelFor(s string) slog.Level {
	switch mcp.LoggingLevel(s) {
	case mcp.LevelDebug:
		return slog.LevelDebug
	case mcp.LevelWarning:
		return slog.LevelWarn
	case mcp.LevelError, mcp.LevelCritical, mcp.LevelAlert, mcp.LevelEmergency:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewServer builds the example-catalog MCP server described by cfg.
func NewServer(cfg *mcp.HostConfig, log *slog.Logger, reg prometheus.Registerer) *mcp.Server {
	server := mcp.NewServer(cfg.Name, cfg.Version, &mcp.ServerOptions{
		Instructions: cfg.Instructions,
		ToolTimeout:  cfg.ToolTimeout,
		Logger:       log,
		Metrics:      mcp.NewPrometheusMetrics(reg),
		EnableTasks:  cfg.EnableTasks,
	})
	registerExampleCatalog(server)
	return server
}

// registerExampleCatalog adds a small, self-contained set of tools,
// prompts, and resources so mcprtd is runnable out of the box.
func registerExampleCatalog(server *mcp.Server) {
	echoSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string"},
		},
		"required": []string{"message"},
	}
	echoTool, err := mcp.NewJSONTool("echo", "Echoes back the given message.", echoSchema,
		func(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error) {
			var in struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, err
			}
			return &mcp.CallToolResult{Content: []*mcp.Content{mcp.NewTextContent(in.Message)}}, nil
		})
	if err != nil {
		panic(err) // a malformed built-in schema is a programming error
	}
	server.Tools.AddTool(echoTool)

	server.Prompts.AddPrompt(&mcp.ServerPrompt{
		Prompt: &mcp.Prompt{
			Name:        "greeting",
			Description: "A friendly greeting prompt.",
			Arguments: []*mcp.PromptArgument{
				{Name: "name", Required: true},
			},
		},
		Handler: func(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
			return &mcp.GetPromptResult{
				Messages: []*mcp.PromptMessage{
					{Role: "user", Content: mcp.NewTextContent(fmt.Sprintf("Say hello to %s.", args["name"]))},
				},
			}, nil
		},
	})

	notes := map[string]string{"note://welcome": "Welcome to mcprtd."}
	server.Resources.AddResource(&mcp.ServerResource{
		Resource: &mcp.Resource{URI: "note://welcome", Name: "welcome", MIMEType: "text/plain"},
		Handler: func(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
			text, ok := notes[uri]
			if !ok {
				return nil, mcp.ResourceNotFoundError(uri)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{mcp.NewTextResourceContents(uri, "text/plain", text)},
			}, nil
		},
	})
}

// Serve runs server over the transport named in cfg until ctx is cancelled.
// reg is the registry NewServer registered the runtime's metrics with; it is
// what gets exposed on HostConfig.MetricsAddr.
func Serve(ctx context.Context, cfg *mcp.HostConfig, server *mcp.Server, log *slog.Logger, reg *prometheus.Registry) error {
	go serveMetrics(cfg, log, reg)

	switch cfg.Transport {
	case "stdio":
		sess, err := server.Connect(ctx, mcp.NewStdIOTransport())
		if err != nil {
			return err
		}
		return sess.Wait()

	case "sse":
		r := mux.NewRouter()
		mcp.NewSSEHandler(server).Register(r, "/mcp/sse")
		return runHTTP(ctx, cfg.HTTPAddr, r, log)

	case "streamable":
		r := mux.NewRouter()
		h := mcp.NewStreamableHTTPHandler(server)
		h.AllowedOrigins = cfg.AllowedOrigins
		h.Register(r, "/mcp")
		return runHTTP(ctx, cfg.HTTPAddr, r, log)

	default:
		return fmt.Errorf("mcp: unknown transport %q", cfg.Transport)
	}
}

func serveMetrics(cfg *mcp.HostConfig, log *slog.Logger, reg *prometheus.Registry) {
	if cfg.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
		log.Error("metrics server stopped", "err", err)
	}
}

func runHTTP(ctx context.Context, addr string, r *mux.Router, log *slog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: r}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
