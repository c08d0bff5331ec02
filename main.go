package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/andrab0/scenegraph/config"
	"github.com/andrab0/scenegraph/pkg/scene/catalog"
	"github.com/andrab0/scenegraph/pkg/scene/metrics"
	"github.com/andrab0/scenegraph/pkg/scene/pipeline"
	"github.com/andrab0/scenegraph/prompts"
	apiserver "github.com/andrab0/scenegraph/server"
	"github.com/andrab0/scenegraph/tools"
)

func main() {
	envFile := flag.String("env", ".env", "Path to environment file")
	addr := flag.String("addr", "", "Address for the HTTP API (overrides ADDR)")
	enableMCP := flag.Bool("mcp", false, "Serve the MCP tools over stdio instead of the HTTP API")
	enableSSE := flag.Bool("sse", false, "Serve the MCP tools over SSE instead of the HTTP API")
	sseBasePath := flag.String("sse-base-path", "/mcp", "Base path for SSE endpoints")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	logger := cfg.Logger()
	if *enableMCP {
		// stdout carries the MCP protocol
		logger.SetOutput(os.Stderr)
	}

	opts, indexCloser, err := cfg.CoordinatorOptions(logger)
	if err != nil {
		logger.Fatalf("Failed to configure phrase index: %v", err)
	}
	defer indexCloser.Close()

	store, storeCloser, err := cfg.GraphStore()
	if err != nil {
		logger.Fatalf("Failed to configure graph store: %v", err)
	}
	defer storeCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coordinator := pipeline.New(opts...)
	coordinator.Start(ctx, cfg.Loader())

	// A failed load is fatal: the service never becomes ready
	go func() {
		if err := coordinator.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatalf("Model loading failed: %v", err)
		}
	}()

	if cfg.Metrics {
		go reportSystemMetrics(ctx)
	}

	switch {
	case *enableMCP || *enableSSE:
		mcpServer := server.NewMCPServer(
			"scenegraph",
			"1.0.0",
			server.WithLogging(),
			server.WithPromptCapabilities(true),
		)
		tools.RegisterSceneGraphTool(mcpServer, coordinator)
		tools.RegisterRelationCatalogTool(mcpServer, catalog.Default())
		prompts.RegisterScenePrompts(mcpServer)

		if *enableSSE {
			serveSSE(ctx, logger, mcpServer, cfg.Addr, *sseBasePath)
			return
		}
		if err := server.ServeStdio(mcpServer); err != nil {
			logger.Fatalf("MCP server error: %v", err)
		}

	default:
		handlerOpts := []apiserver.Option{
			apiserver.WithLogger(logger),
			apiserver.WithMetrics(cfg.Metrics),
		}
		if store != nil {
			handlerOpts = append(handlerOpts, apiserver.WithStore(store))
		}
		serveHTTP(ctx, logger, apiserver.NewHandler(coordinator, handlerOpts...).Routes(), cfg.Addr)
	}
}

func serveHTTP(ctx context.Context, logger *logrus.Logger, handler http.Handler, addr string) {
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logger.WithField("addr", addr).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown error")
	}
	logger.Info("HTTP server stopped")
}

func serveSSE(ctx context.Context, logger *logrus.Logger, mcpServer *server.MCPServer, addr, basePath string) {
	sseServer := server.NewSSEServer(mcpServer, server.WithBasePath(basePath))

	go func() {
		logger.WithFields(logrus.Fields{"addr": addr, "base_path": basePath}).Info("Starting SSE server")
		if err := sseServer.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start SSE server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down SSE server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sseServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("SSE server shutdown error")
	}
	logger.Info("SSE server shutdown complete")
}

func reportSystemMetrics(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		metrics.UpdateSystemMetrics()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
