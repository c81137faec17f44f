package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/ehdc-llpg/addrparse"
	"github.com/ehdc-llpg/addrparse/internal/cache"
	"github.com/ehdc-llpg/addrparse/internal/lexicon"
	"github.com/ehdc-llpg/addrparse/internal/web/handlers"
	"github.com/ehdc-llpg/addrparse/internal/web/middleware"
)

// BuildFunc constructs a parser from the current lexicon tables
type BuildFunc func() (*addrparse.Parser, error)

// Server represents the web server
type Server struct {
	config     *Config
	build      BuildFunc
	current    atomic.Pointer[snapshot]
	cache      *cache.Cache
	httpServer *http.Server
	router     *mux.Router

	mu     sync.Mutex
	status handlers.ReloadStatus
}

// snapshot pairs a parser with the generation that keys its cached results
type snapshot struct {
	parser     *addrparse.Parser
	generation uint64
}

// NewServer builds the first parser and wires the routes. c may be nil.
func NewServer(config *Config, build BuildFunc, c *cache.Cache) (*Server, error) {
	p, err := build()
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}

	server := &Server{
		config: config,
		build:  build,
		cache:  c,
	}
	// generations start from the clock so a restart never reuses cached
	// results from tables that may have changed on disk
	generation := uint64(time.Now().UnixNano())
	server.current.Store(&snapshot{parser: p, generation: generation})
	server.status.Generation = generation

	// Setup routes
	server.setupRoutes()

	// Create HTTP server
	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server, nil
}

// Current returns the parser in service
func (s *Server) Current() *addrparse.Parser {
	return s.current.Load().parser
}

// Snapshot returns the parser in service with its generation
func (s *Server) Snapshot() (*addrparse.Parser, uint64) {
	snap := s.current.Load()
	return snap.parser, snap.generation
}

// Handler exposes the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Reload rebuilds the parser. On failure the previous parser stays in service.
// Results cached under the old generation are unreachable after the swap;
// the flush only reclaims their space.
func (s *Server) Reload(ctx context.Context) error {
	p, err := s.build()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status.LastError = err.Error()
		return err
	}

	next := s.current.Load().generation + 1
	s.current.Store(&snapshot{parser: p, generation: next})
	s.status.Generation = next
	s.status.Reloads++
	s.status.LastReload = time.Now().UTC()
	s.status.LastError = ""

	if err := s.cache.Flush(ctx); err != nil {
		log.Printf("cache flush after reload failed: %v", err)
	}
	return nil
}

// ReloadStatus reports reload history
func (s *Server) ReloadStatus() handlers.ReloadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// WatchLexicons reloads whenever an override table changes; blocks until ctx ends
func (s *Server) WatchLexicons(ctx context.Context, dir string) error {
	return lexicon.Watch(ctx, dir, lexicon.DefaultDebounce, func() {
		if err := s.Reload(ctx); err != nil {
			log.Printf("lexicon reload failed, keeping previous tables: %v", err)
			return
		}
		log.Printf("lexicons reloaded from %s", dir)
	})
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	// Convert config for handlers (to avoid import cycle)
	handlerConfig := &handlers.Config{}
	handlerConfig.Features.CacheEnabled = s.config.Features.CacheEnabled
	handlerConfig.Features.BatchEnabled = s.config.Features.BatchEnabled
	handlerConfig.Features.ReloadEnabled = s.config.Features.ReloadEnabled

	apiHandler := &handlers.APIHandler{Parsers: s, Cache: s.cache, Config: handlerConfig}
	parseHandler := &handlers.ParseHandler{Parsers: s, Cache: s.cache, Config: handlerConfig}
	batchHandler := &handlers.BatchHandler{Parsers: s, Config: handlerConfig}
	reloadHandler := &handlers.ReloadHandler{Reloader: s, Config: handlerConfig}

	// API routes
	api := s.router.PathPrefix("/api").Subrouter()

	handle(api, "/parse", parseHandler.Parse, "GET", "POST", "OPTIONS")
	handle(api, "/detect", parseHandler.Detect, "GET")
	handle(api, "/shortcode/{locale}/{word}", parseHandler.ShortCode, "GET")
	handle(api, "/schema", apiHandler.Schema, "GET")
	handle(api, "/health", apiHandler.Health, "GET")

	if s.config.Features.BatchEnabled {
		handle(api, "/batch", batchHandler.Process, "POST", "OPTIONS")
	}

	handle(api, "/reload/status", reloadHandler.Status, "GET")
	if s.config.Features.ReloadEnabled {
		handle(api, "/reload", reloadHandler.TriggerReload, "POST")
	}

	// Apply middleware
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging())

	if s.config.Auth.Enabled {
		// Apply authentication middleware to API routes only
		api.Use(middleware.Authentication(s.config.Auth.APIKey))
	}
}

// handle registers h for methods on path and answers 405 for any other
// method. mux clears a method mismatch on subrouter routes that share the
// prefix, so the fallback route is registered explicitly.
func handle(r *mux.Router, path string, h http.HandlerFunc, methods ...string) {
	r.HandleFunc(path, h).Methods(methods...)

	allow := strings.Join(methods, ", ")
	r.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Allow", allow)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
}

// Start runs the server until SIGINT/SIGTERM or ctx ends
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.config.Lexicon.Watch && s.config.Lexicon.Dir != "" {
		go func() {
			if err := s.WatchLexicons(ctx, s.config.Lexicon.Dir); err != nil && ctx.Err() == nil {
				log.Printf("lexicon watcher stopped: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on http://%s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := s.cache.Close(); err != nil {
		log.Printf("Cache close error: %v", err)
	}

	log.Println("Server stopped")
	return nil
}
