// ABOUTME: Gateway orchestrator that wires stores, specialists, and the dispatch engine
// ABOUTME: Manages the HTTP server, optional tailnet listener, and shutdown lifecycle

package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/2389/switchboard/internal/capability"
	"github.com/2389/switchboard/internal/config"
	"github.com/2389/switchboard/internal/dedupe"
	"github.com/2389/switchboard/internal/dispatch"
	"github.com/2389/switchboard/internal/specialist"
	"github.com/2389/switchboard/internal/store"
)

// Gateway serves the turn API over a dispatch engine.
type Gateway struct {
	config      *config.Config
	engine      *dispatch.Engine
	usage       store.UsageStore
	closers     []namedCloser
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger
	startedAt   time.Time
}

type namedCloser struct {
	name string
	c    io.Closer
}

// initStore opens the checkpoint database. SWITCHBOARD_DB_PATH overrides the config.
func initStore(cfg *config.Config) (*store.SQLiteStore, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("SWITCHBOARD_DB_PATH"); envPath != "" {
		dbPath = envPath
	}
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// initRecords opens the member records database and seeds demo data when asked.
func initRecords(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*capability.SQLiteRecords, error) {
	records, err := capability.NewSQLiteRecords(cfg.Records.Path, capability.RecordsOptions{
		CacheTTL: cfg.Records.SearchCacheTTL,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing records: %w", err)
	}
	if cfg.Records.SeedOnStart {
		summary, err := records.SeedIfEmpty(ctx)
		if err != nil {
			_ = records.Close()
			return nil, fmt.Errorf("seeding records: %w", err)
		}
		if summary != nil {
			logger.Info("seeded demo records", "users", summary.Users, "experiences", summary.Experiences, "articles", summary.Articles)
		}
	}
	return records, nil
}

// New creates a fully wired Gateway from configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sqlStore, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	records, err := initRecords(ctx, cfg, logger)
	if err != nil {
		_ = sqlStore.Close()
		return nil, err
	}

	closeAll := func() {
		_ = records.Close()
		_ = sqlStore.Close()
	}

	model, err := NewModelClient(ctx, cfg.LLM)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("creating model client: %w", err)
	}
	if model != nil {
		info := model.Info()
		logger.Info("model provider configured", "provider", info.Provider, "model", info.Model)
	}

	classifier, err := NewClassifier(cfg.Dispatch, model, logger)
	if err != nil {
		closeAll()
		return nil, err
	}

	table, err := specialist.NewStandardTable(specialist.Options{
		Client:   model,
		Provider: records,
		MaxSteps: cfg.Dispatch.MaxSteps,
		Logger:   logger,
	})
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("building routing table: %w", err)
	}

	var replay *dedupe.Cache[*dispatch.TurnResult]
	if cfg.Replay.MaxEntries > 0 {
		replay, err = dedupe.New[*dispatch.TurnResult](cfg.Replay.TTL, cfg.Replay.MaxEntries)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("creating replay cache: %w", err)
		}
	}

	engine, err := dispatch.New(dispatch.Options{
		Classifier:      classifier,
		Table:           table,
		Store:           sqlStore,
		Usage:           sqlStore,
		Replay:          replay,
		ClassifyTimeout: cfg.Dispatch.ClassifyTimeout,
		HandleTimeout:   cfg.Dispatch.HandleTimeout,
		CommitTimeout:   cfg.Dispatch.CommitTimeout,
		Logger:          logger,
	})
	if err != nil {
		closeAll()
		return nil, err
	}

	gw := newGateway(cfg, engine, sqlStore, logger)
	gw.closers = []namedCloser{
		{"records close", records},
		{"store close", sqlStore},
	}
	return gw, nil
}

// newGateway builds the HTTP surface around an engine. It takes ownership
// of nothing; New registers the closers.
func newGateway(cfg *config.Config, engine *dispatch.Engine, usage store.UsageStore, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	gw := &Gateway{
		config:    cfg,
		engine:    engine,
		usage:     usage,
		logger:    logger.With("component", "gateway"),
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", gw.handleHealth)
	mux.HandleFunc("/health/ready", gw.handleReady)
	mux.HandleFunc("/api/turn", gw.handleTurn)
	mux.HandleFunc("/api/threads", gw.handleListThreads)
	mux.HandleFunc("/api/threads/", gw.handleThreadMessages)
	mux.HandleFunc("/api/stats/usage", gw.handleUsageStats)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return gw
}

// Handler returns the HTTP handler serving the API.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// setupListener creates the HTTP listener (Tailscale or TCP).
func (g *Gateway) setupListener(ctx context.Context) (net.Listener, error) {
	if g.config.Tailscale.Enabled {
		if g.config.Server.HTTPAddr != "" {
			g.logger.Warn("server.http_addr is ignored when tailscale is enabled", "http_addr", g.config.Server.HTTPAddr)
		}
		return g.setupTailscaleListener(ctx)
	}

	g.logger.Info("starting gateway", "http_addr", g.config.Server.HTTPAddr)
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := g.setupListener(ctx)
	if err != nil {
		return err
	}
	return g.Serve(ctx, ln)
}

// Serve serves on ln until the context is canceled, then shuts down.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout
// since the run context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// resolveTailscaleStateDir returns the state directory, using default if not configured.
func resolveTailscaleStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for tailscale state (set tailscale.state_dir explicitly): %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "switchboard", "tailscale"), nil
}

// resolveTailscaleAuthKey returns the auth key from config or environment.
func resolveTailscaleAuthKey(configured string) (string, error) {
	authKey := configured
	if authKey == "" {
		authKey = os.Getenv("TS_AUTHKEY")
	}
	if authKey == "" {
		return "", errors.New("tailscale auth key required: set auth_key in config or TS_AUTHKEY environment variable")
	}
	return authKey, nil
}

// setupTailscaleListener joins the tailnet and listens on :80 there.
func (g *Gateway) setupTailscaleListener(ctx context.Context) (net.Listener, error) {
	tsCfg := g.config.Tailscale

	stateDir, err := resolveTailscaleStateDir(tsCfg.StateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := resolveTailscaleAuthKey(tsCfg.AuthKey)
	if err != nil {
		return nil, err
	}

	g.tsnetServer = &tsnet.Server{
		Hostname:  tsCfg.Hostname,
		Dir:       stateDir,
		Ephemeral: tsCfg.Ephemeral,
		AuthKey:   authKey,
	}

	g.logger.Info("starting tailscale node", "hostname", tsCfg.Hostname, "state_dir", stateDir, "ephemeral", tsCfg.Ephemeral)
	status, err := g.tsnetServer.Up(ctx)
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}
	g.logTailscaleStatus(tsCfg.Hostname, status)

	ln, err := g.tsnetServer.Listen("tcp", ":80")
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, fmt.Errorf("listening on tailscale HTTP port: %w", err)
	}
	return ln, nil
}

// logTailscaleStatus logs info about the tailscale node status.
func (g *Gateway) logTailscaleStatus(hostname string, status *ipnstate.Status) {
	var tsAddr, dnsName string
	if len(status.TailscaleIPs) > 0 {
		tsAddr = status.TailscaleIPs[0].String()
	} else {
		g.logger.Warn("tailscale node has no IP addresses assigned")
	}
	if status.Self != nil {
		dnsName = status.Self.DNSName
	}
	g.logger.Info("tailscale node ready", "hostname", hostname, "tailscale_ip", tsAddr, "dns_name", dnsName)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server, waits for in-flight turns, and closes the stores.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))

	if g.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", g.tsnetServer.Close())
	}
	for _, c := range g.closers {
		errs = appendCloseError(errs, c.name, c.c.Close())
	}
	g.closers = nil

	return errors.Join(errs...)
}
