package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/raglab/codeassist-mcp/internal/mcp"
	"github.com/raglab/codeassist-mcp/internal/orchestrator"
	"github.com/raglab/codeassist-mcp/internal/storage"
	"github.com/raglab/codeassist-mcp/internal/watcher"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// Environment variables read here. Provider credentials and endpoints are
// read by the factories in internal/embedder and internal/llm.
const (
	envDBPath     = "CODEASSIST_DB_PATH"
	envRetrievalK = "CODEASSIST_RETRIEVAL_K"
	envMinScore   = "CODEASSIST_MIN_SCORE"
)

func main() {
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	showVersion := flag.Bool("version", false, "print version information and exit")
	dbPath := flag.String("db", "", "index database directory (default $CODEASSIST_DB_PATH or "+mcp.DefaultDBPath+")")
	watch := flag.Bool("watch", false, "reindex automatically when files under the indexed root change")
	flag.Parse()

	if *showVersion {
		fmt.Printf("CodeAssist MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	// Log startup info to stderr (stdout is reserved for the MCP protocol)
	log.SetOutput(os.Stderr)
	log.Printf("codeassist-mcp v%s starting (driver %s, %s build)", version, storage.DriverName, storage.BuildMode)

	path := *dbPath
	if path == "" {
		path = os.Getenv(envDBPath)
	}

	server, err := mcp.NewServer(path, pipelineConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Restore the persisted generation so searches work before the first
	// index_codebase call. A corrupt index falls back to a full reindex
	// inside Load; only real failures abort startup.
	if err := server.Load(ctx); err != nil {
		log.Fatalf("Failed to load persisted index: %v", err)
	}

	if *watch {
		startWatcher(ctx, server)
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- server.Serve()
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}

	log.Println("Server stopped")
}

// startWatcher begins auto-reindexing when a persisted index names a root.
// Without one there is nothing to watch yet: index_codebase has to run, and
// watch mode picks the root up on the next start.
func startWatcher(ctx context.Context, server *mcp.Server) {
	root := server.Index().Root()
	if root == "" {
		log.Printf("--watch: no codebase indexed yet, watch mode disabled for this run")
		return
	}

	w, err := watcher.New(server.Index(), root, watcher.DefaultDebounce)
	if err != nil {
		log.Printf("--watch: %v, continuing without watch mode", err)
		return
	}

	go func() {
		defer func() { _ = w.Close() }()
		if err := w.Run(ctx); err != nil {
			log.Printf("watcher stopped: %v", err)
		}
	}()
}

// pipelineConfigFromEnv reads the retrieval overrides for process_code.
// Unset or invalid values keep the per-task defaults.
func pipelineConfigFromEnv() *orchestrator.Config {
	cfg := &orchestrator.Config{}

	if v := os.Getenv(envRetrievalK); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil || k < 1 {
			log.Printf("ignoring %s=%q: want a positive integer", envRetrievalK, v)
		} else {
			cfg.RetrievalK = k
		}
	}

	if v := os.Getenv(envMinScore); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil || score < -1 || score > 1 {
			log.Printf("ignoring %s=%q: want a number between -1 and 1", envMinScore, v)
		} else {
			cfg.MinScore = score
		}
	}

	return cfg
}
