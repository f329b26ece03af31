// ABOUTME: HTTP server assembly for the cloak chat API
// ABOUTME: Wires auth middleware, chat routes, request logging, and graceful shutdown

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cloakchat/cloak/internal/auth"
	"github.com/cloakchat/cloak/internal/chat"
	"github.com/cloakchat/cloak/internal/config"
	"github.com/cloakchat/cloak/internal/llm"
	"github.com/cloakchat/cloak/internal/seal"
	"github.com/cloakchat/cloak/internal/store"
)

// Gateway is the HTTP boundary of the chat pipeline.
type Gateway struct {
	config     *config.Config
	service    *chat.Service
	store      store.Store
	httpServer *http.Server
	logger     *slog.Logger
}

// Deps are the collaborators the gateway serves. Tests inject doubles
// here; New builds the production set from configuration.
type Deps struct {
	Store     store.Store
	Cipher    *seal.Cipher
	Completer chat.Completer
	Verifier  auth.TokenVerifier
}

// New creates a gateway with its production collaborators: the SQLite
// store, the configured cipher key, and the completion provider client.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	key, err := cipherKey(cfg.Cipher)
	if err != nil {
		return nil, err
	}
	cipher, err := seal.New(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	completer := llm.NewClient(llm.Config{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Model:   cfg.Provider.Model,
		Timeout: cfg.Provider.Timeout,
	}, logger)

	return NewWithDeps(cfg, Deps{
		Store:     sqlStore,
		Cipher:    cipher,
		Completer: completer,
		Verifier:  auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)),
	}, logger), nil
}

// NewWithDeps creates a gateway around explicit collaborators.
func NewWithDeps(cfg *config.Config, deps Deps, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gateway{
		config:  cfg,
		service: chat.New(deps.Store, deps.Cipher, deps.Completer, logger),
		store:   deps.Store,
		logger:  logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()

	// Health endpoint - no auth required
	mux.HandleFunc("/health", g.handleHealth)

	// Chat API - every operation behind the auth gate
	authMiddleware := auth.Middleware(deps.Verifier)
	mux.Handle("/api/chat/history", authMiddleware(http.HandlerFunc(g.handleHistory)))
	mux.Handle("/api/chat/message", authMiddleware(http.HandlerFunc(g.handleMessage)))

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           g.logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g
}

// cipherKey resolves the configured key material to raw key bytes.
func cipherKey(cfg config.CipherConfig) ([]byte, error) {
	if cfg.Key != "" {
		return seal.KeyFromBase64(cfg.Key)
	}
	return seal.DeriveKey(cfg.Passphrase, cfg.Salt)
}

// Handler returns the fully assembled HTTP handler, used by tests.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
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

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := g.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	if err := g.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// handleHealth returns 200 OK as long as the process is serving.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// statusWriter captures the response status for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// logRequests wraps the handler with per-request logging and a request id.
func (g *Gateway) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		g.logger.Info("request",
			"request_id", uuid.New().String(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}
