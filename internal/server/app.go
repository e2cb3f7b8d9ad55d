// Package server wires configuration, storage, the completion provider and
// the services together, then runs the HTTP API and the gRPC health endpoint
// until the process is asked to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/chanakya/internal/logging"
	"github.com/dmitrijs2005/chanakya/internal/server/config"
	"github.com/dmitrijs2005/chanakya/internal/server/httpapi"
	"github.com/dmitrijs2005/chanakya/internal/server/llm"
	"github.com/dmitrijs2005/chanakya/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chanakya/internal/server/services"

	gs "github.com/dmitrijs2005/chanakya/internal/server/grpc"
)

const (
	shutdownTimeout     = 10 * time.Second
	healthCheckInterval = 15 * time.Second
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   repomanager.RepositoryManager
	handler http.Handler
}

// NewApp connects to the store, applies migrations and builds the router.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	store, err := repomanager.Open(ctx, c.DatabaseDSN, c.DatabaseName)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := store.RunMigrations(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	groq := llm.NewGroqClient(c.GroqAPIKey, c.GroqBaseURL, c.LLMModel, c.LLMTimeout, logger)
	if !groq.Configured() {
		logger.Warn(ctx, "GROQ_API_KEY is not set; conversations will return the canned reply and generation will fall back")
	}

	accounts := services.NewUserService(store, c, logger)
	if !c.BillingEnabled() {
		logger.Warn(ctx, "STRIPE_SECRET_KEY is not set; premium upgrades are unavailable")
	}

	srv := httpapi.NewServer(
		accounts,
		services.NewChatService(store, groq, logger),
		services.NewItineraryService(store, groq, logger),
		services.NewExportService(store, c, logger),
		services.NewBillingService(accounts, c, logger),
		groq,
		logger,
	)

	logger.Info(ctx, "storage ready", "backend", store.Backend())

	return &App{config: c, logger: logger, store: store, handler: srv.Router(c.CORSOrigins)}, nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	hs := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := hs.Shutdown(sctx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.store, healthCheckInterval)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until SIGINT/SIGTERM/SIGQUIT or a listener failure, then drains
// both servers and closes the store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	cctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.store.Close(cctx); err != nil {
		app.logger.Error(cctx, "store close", "error", err)
	}
	app.logger.Info(cctx, "App stopped")
}
