// Package main provides the CLI entry point for the crowdseed MCP server.
//
// Supports multiple transport modes:
//   - stdio (default): Standard input/output for CLI integration
//   - http: Streamable HTTP transport for web integration
//   - http+oauth: HTTP with OAuth 2.1 authentication
//
// Usage:
//
//	crowdseed-mcp                           # stdio mode (default)
//	crowdseed-mcp --transport http --port 8080
//	crowdseed-mcp --transport http --port 8080 --oauth --issuer https://company.okta.com --audience api://crowdseed
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/tuannvm/crowdseed/internal/logging"
	seedmcp "github.com/tuannvm/crowdseed/internal/mcp"
	"github.com/tuannvm/crowdseed/internal/pipeline"
)

// Version is the server version, set by the build process.
var Version = "dev"

func main() {
	transport := flag.String("transport", getEnv("MCP_TRANSPORT", "stdio"), "Transport mode: stdio, http")
	port := flag.Int("port", getEnvInt("MCP_PORT", 8080), "HTTP port (only used with --transport http)")
	enableOAuth := flag.Bool("oauth", false, "Enable OAuth 2.1 authentication (only with http transport)")
	oauthProvider := flag.String("provider", "okta", "OAuth provider: okta, google, azure, hmac")
	oauthIssuer := flag.String("issuer", "", "OAuth issuer URL (required with --oauth)")
	oauthAudience := flag.String("audience", "", "OAuth audience (required with --oauth)")
	oauthServerURL := flag.String("server-url", getEnv("MCP_SERVER_URL", ""), "Public base URL for OAuth callbacks")
	sessionTimeout := flag.Duration("session-timeout", 30*time.Minute, "HTTP session timeout")
	configPath := flag.String("config", "", "Path to crowdseed config file")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	logger, err := logging.New(*verbose, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := pipeline.NewMetrics(registry)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	handlers := seedmcp.NewHandlers().
		WithConfigPath(*configPath).
		WithLogger(logger).
		WithMetrics(metrics)

	slogLevel := slog.LevelInfo
	if *verbose {
		slogLevel = slog.LevelDebug
	}

	cfg := &seedmcp.ServerConfig{
		Version:        Version,
		Logger:         slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})),
		Log:            logger,
		Handlers:       handlers,
		Registry:       registry,
		Port:           *port,
		SessionTimeout: *sessionTimeout,
	}

	if *enableOAuth {
		if *oauthIssuer == "" || *oauthAudience == "" {
			logger.Fatal("--issuer and --audience are required with --oauth")
		}
		cfg.OAuth = &seedmcp.OAuthConfig{
			Provider:  *oauthProvider,
			Issuer:    *oauthIssuer,
			Audience:  *oauthAudience,
			ServerURL: *oauthServerURL,
		}
	}

	server := seedmcp.NewServer(cfg)

	switch *transport {
	case "stdio":
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		err = server.ServeStdio(ctx)
	case "http":
		if cfg.OAuth != nil {
			err = server.ServeHTTPWithOAuth()
		} else {
			err = server.ServeHTTP()
		}
	default:
		logger.Fatal("unknown transport (use: stdio, http)", zap.String("transport", *transport))
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return def
}
