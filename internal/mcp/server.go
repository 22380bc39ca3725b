package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	oauth "github.com/tuannvm/oauth-mcp-proxy"
	mcpoauth "github.com/tuannvm/oauth-mcp-proxy/mcp"
	"go.uber.org/zap"
)

const (
	// ServerName is the MCP server name.
	ServerName = "crowdseed"
	// ServerVersion is the MCP server version.
	ServerVersion = "1.0.0"
)

// ServerInstructions provides usage guidance for LLMs.
const ServerInstructions = `Crowdseed populates a social-feed backend with synthetic users, first posts and comments generated by an LLM.

Available tools:
- create_users: Generate and persist N users from a free-text description. Each user gets a profile and a first post.
- react_to_post: Have every existing user comment on a post, in the voice of their bio.
- list_tasks: Show the configured pipelines, backends and prompt tasks.

Iterations are best-effort: a failed iteration is reported with the stage it failed at and the run continues.
A user whose first post could not be created is reported as orphaned; it is not rolled back.`

// ServerConfig holds configuration for creating an MCP server.
type ServerConfig struct {
	Name         string
	Version      string
	Instructions string
	Logger       *slog.Logger // passed to the MCP SDK
	Log          *zap.Logger
	Handlers     *Handlers
	Registry     *prometheus.Registry

	// Transport settings
	Port           int
	SessionTimeout time.Duration

	// OAuth settings (optional)
	OAuth *OAuthConfig
}

// OAuthConfig holds OAuth-specific configuration.
type OAuthConfig struct {
	Provider  string // okta, google, azure, hmac
	Issuer    string
	Audience  string
	ServerURL string // Base URL for OAuth callbacks (e.g., https://example.com:8080)
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Name:           ServerName,
		Version:        ServerVersion,
		Instructions:   ServerInstructions,
		Logger:         slog.Default(),
		Log:            zap.NewNop(),
		Handlers:       NewHandlers(),
		Registry:       prometheus.NewRegistry(),
		Port:           8080,
		SessionTimeout: 30 * time.Minute,
	}
}

// Server represents the MCP server with all components.
type Server struct {
	mcpServer   *mcp.Server
	config      *ServerConfig
	oauthServer *oauth.Server
}

// NewServer creates a new MCP server instance with all components.
func NewServer(cfg *ServerConfig) *Server {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if cfg.Name == "" {
		cfg.Name = ServerName
	}
	if cfg.Version == "" {
		cfg.Version = ServerVersion
	}
	if cfg.Instructions == "" {
		cfg.Instructions = ServerInstructions
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Handlers == nil {
		cfg.Handlers = NewHandlers()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 30 * time.Minute
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		&mcp.ServerOptions{
			Instructions: cfg.Instructions,
			Logger:       cfg.Logger,
		},
	)

	registerTools(mcpServer, cfg.Handlers)

	return &Server{
		mcpServer: mcpServer,
		config:    cfg,
	}
}

// ServeStdio starts the MCP server with STDIO transport.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.config.Log.Info("starting MCP server", zap.String("transport", "stdio"))
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// ServeHTTP starts the MCP server with streamable HTTP transport.
func (s *Server) ServeHTTP() error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", s.streamableHandler())
	s.addOperationalRoutes(mux)

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.config.Log.Info("starting MCP server",
		zap.String("transport", "http"),
		zap.String("endpoint", fmt.Sprintf("http://localhost%s/mcp", addr)),
		zap.String("health", fmt.Sprintf("http://localhost%s/health", addr)),
		zap.String("metrics", fmt.Sprintf("http://localhost%s/metrics", addr)))

	return s.runHTTPServer(addr, mux)
}

// ServeHTTPWithOAuth starts the MCP server with OAuth 2.1 authentication.
func (s *Server) ServeHTTPWithOAuth() error {
	if s.config.OAuth == nil {
		return fmt.Errorf("OAuth configuration is required")
	}

	serverURL := s.config.OAuth.ServerURL
	if serverURL == "" {
		serverURL = fmt.Sprintf("http://localhost:%d", s.config.Port)
	}

	mux := http.NewServeMux()

	oauthServer, handler, err := mcpoauth.WithOAuth(mux, &oauth.Config{
		Provider:  s.config.OAuth.Provider,
		Issuer:    s.config.OAuth.Issuer,
		Audience:  s.config.OAuth.Audience,
		ServerURL: serverURL,
	}, s.mcpServer)
	if err != nil {
		return fmt.Errorf("failed to create OAuth server: %w", err)
	}
	s.oauthServer = oauthServer

	mux.Handle("/mcp", handler)
	s.addOperationalRoutes(mux)

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.config.Log.Info("starting MCP server with OAuth",
		zap.String("endpoint", serverURL+"/mcp"),
		zap.String("provider", s.config.OAuth.Provider),
		zap.String("issuer", s.config.OAuth.Issuer))
	s.oauthServer.LogStartup(false)

	return s.runHTTPServer(addr, mux)
}

func (s *Server) streamableHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.mcpServer
	}, &mcp.StreamableHTTPOptions{
		SessionTimeout: s.config.SessionTimeout,
		Logger:         s.config.Logger,
	})
}

// addOperationalRoutes adds the health check and metrics endpoints to the mux.
func (s *Server) addOperationalRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","version":"%s"}`, s.config.Version)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
}

// runHTTPServer runs an HTTP server with graceful shutdown.
func (s *Server) runHTTPServer(addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      10 * time.Minute, // a create_users run can take minutes
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		s.config.Log.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		errCh <- srv.Shutdown(ctx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-errCh
}

// boolPtr creates a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// registerTools registers all crowdseed tools with the MCP server.
func registerTools(server *mcp.Server, h *Handlers) {
	registerCreateUsersTool(server, h)
	registerReactToPostTool(server, h)
	registerListTasksTool(server, h)
}

func registerCreateUsersTool(server *mcp.Server, h *Handlers) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "create_users",
			Description: "Generate N synthetic users matching a description. Each iteration generates a profile, creates the user and publishes its first post.",
			Annotations: &mcp.ToolAnnotations{
				Title:           "Create Users",
				ReadOnlyHint:    false,
				DestructiveHint: boolPtr(false),
				IdempotentHint:  false,
				OpenWorldHint:   boolPtr(true),
			},
		},
		func(ctx context.Context, req *mcp.CallToolRequest, input CreateUsersInput) (*mcp.CallToolResult, RunOutput, error) {
			output, err := h.CreateUsers(ctx, input)
			return nil, output, err
		},
	)
}

func registerReactToPostTool(server *mcp.Server, h *Handlers) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "react_to_post",
			Description: "Have every existing user comment on a post. Each comment is written from the commenter's bio. A failure for one user does not stop the others.",
			Annotations: &mcp.ToolAnnotations{
				Title:           "React To Post",
				ReadOnlyHint:    false,
				DestructiveHint: boolPtr(false),
				IdempotentHint:  false,
				OpenWorldHint:   boolPtr(true),
			},
		},
		func(ctx context.Context, req *mcp.CallToolRequest, input ReactToPostInput) (*mcp.CallToolResult, RunOutput, error) {
			output, err := h.ReactToPost(ctx, input)
			return nil, output, err
		},
	)
}

func registerListTasksTool(server *mcp.Server, h *Handlers) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_tasks",
			Description: "List the configured pipelines with their backend and ordered prompt tasks.",
			Annotations: &mcp.ToolAnnotations{
				Title:          "List Tasks",
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
			},
		},
		func(ctx context.Context, req *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, ListTasksOutput, error) {
			return nil, h.ListTasks(ctx, input), nil
		},
	)
}
