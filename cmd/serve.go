package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ewaste-depot/cpu-catalog/internal/catalog"
	"github.com/ewaste-depot/cpu-catalog/internal/catalogsync"
	"github.com/ewaste-depot/cpu-catalog/internal/cleanup"
	"github.com/ewaste-depot/cpu-catalog/internal/fetcher"
	"github.com/ewaste-depot/cpu-catalog/internal/metrics"
	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

// corsAllowedHeaders are the request headers browser callers send.
var corsAllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sync, cleanup and coverage endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		a := &api{
			open:       openStore,
			fetcher:    newFetcher(),
			recordRuns: cfg.Store.RecordRuns,
			log:        zap.L().With(zap.String("component", "serve")),
		}
		defer a.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(a),
			ReadHeaderTimeout: 30 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// api holds the dependencies of the HTTP handlers. The store is opened on
// first use so a missing database setting surfaces as a 500 envelope.
type api struct {
	open       func(ctx context.Context) (catalog.Store, error)
	fetcher    fetcher.Fetcher
	recordRuns bool
	log        *zap.Logger

	mu    sync.Mutex
	store catalog.Store
}

func (a *api) catalogStore(ctx context.Context) (catalog.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil {
		return a.store, nil
	}
	st, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

// Close releases the store if one was opened.
func (a *api) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil {
		_ = a.store.Close()
		a.store = nil
	}
}

func newRouter(a *api) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: corsAllowedHeaders,
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/functions/v1", func(r chi.Router) {
		r.Options("/*", preflight)
		r.Post("/cpu-catalog-sync", a.handleSync)
		r.Post("/cpu-catalog-cleanup", a.handleCleanup)
		r.Get("/cpu-catalog-coverage", a.handleCoverage)
	})
	return r
}

// preflight answers OPTIONS with CORS headers and no body.
func preflight(w http.ResponseWriter, _ *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.WriteHeader(http.StatusOK)
}

type syncRequest struct {
	Scope string `json:"scope"`
}

func (a *api) handleSync(w http.ResponseWriter, r *http.Request) {
	// Unparseable or missing bodies fall back to scope "all".
	var req syncRequest
	if body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)); err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, &req)
	}
	scope := model.ParseScope(req.Scope)

	// A run finishes even if the caller goes away.
	ctx := context.WithoutCancel(r.Context())

	st, err := a.catalogStore(ctx)
	if err != nil {
		a.fail(w, "sync", err)
		return
	}
	s := catalogsync.New(st, a.fetcher)
	s.RecordRuns = a.recordRuns

	res, err := s.Run(ctx, scope)
	if err != nil {
		a.fail(w, "sync", err)
		return
	}
	a.succeed(w, res)
}

func (a *api) handleCleanup(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	st, err := a.catalogStore(ctx)
	if err != nil {
		a.fail(w, "cleanup", err)
		return
	}
	c := cleanup.New(st)
	c.RecordRuns = a.recordRuns

	res, err := c.Run(ctx)
	if err != nil {
		a.fail(w, "cleanup", err)
		return
	}
	a.succeed(w, res)
}

func (a *api) handleCoverage(w http.ResponseWriter, r *http.Request) {
	st, err := a.catalogStore(r.Context())
	if err != nil {
		a.fail(w, "coverage", err)
		return
	}
	cov, err := st.Coverage(r.Context())
	if err != nil {
		a.fail(w, "coverage", err)
		return
	}
	a.succeed(w, cov)
}

func (a *api) succeed(w http.ResponseWriter, result any) {
	env, err := successEnvelope(result)
	if err != nil {
		a.fail(w, "encode", err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (a *api) fail(w http.ResponseWriter, op string, err error) {
	a.log.Error("request failed", zap.String("op", op), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, failureEnvelope(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
