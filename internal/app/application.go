package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"rollcall/internal/api"
	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/database"
	"rollcall/internal/session"
	"rollcall/internal/websocket"
	pkgdatabase "rollcall/pkg/database"
)

// Application coordinates all system components.
type Application struct {
	config     *config.Config
	store      *database.Store
	registry   *session.Registry
	httpServer *http.Server
}

// NewApplication initializes all components in dependency order:
// Store → Tokens → Registry → Controller → Engine → API → Gateway → HTTP.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbConfig := &pkgdatabase.Config{
		DatabasePath:    cfg.Database.Path,
		MaxConnections:  10,
		ConnMaxLifetime: cfg.Database.Timeout,
		ConnMaxIdleTime: cfg.Database.Timeout / 3,
	}
	store, err := database.NewStore(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// The registry is the only in-process shared mutable state: one
	// active-session slot, constructed here and handed to the controller
	// and the gateway.
	registry := session.NewRegistry()
	controller := session.NewController(registry, store)
	engine := attendance.NewEngine(registry, store, store)

	apiServer := api.NewServer(store, store, store, tokens, tokens, controller, store)
	wsHandler := websocket.NewHandler(tokens, engine, cfg.WebSocket)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		store:      store,
		registry:   registry,
		httpServer: httpServer,
	}, nil
}

// Start begins serving. It returns once the listener is up or startup
// failed.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting rollcall on %s", app.httpServer.Addr)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("Rollcall started successfully")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop gracefully shuts down in reverse dependency order: HTTP first, then
// the store. The session registry is simply dropped; the active session is
// in-memory only and does not survive shutdown.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down rollcall")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	app.registry.SetActive(nil)

	if err := app.store.Close(); err != nil {
		log.Printf("Store shutdown error: %v", err)
	}

	log.Printf("Rollcall shutdown complete")
	return nil
}

// Addr returns the server address for external connections.
func (app *Application) Addr() string {
	return app.httpServer.Addr
}
