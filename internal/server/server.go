package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/seamus-45/roficlip/internal/channel"
	"github.com/seamus-45/roficlip/internal/config"
	"github.com/seamus-45/roficlip/internal/logging"
	"github.com/seamus-45/roficlip/internal/storage"
	"github.com/seamus-45/roficlip/internal/storage/ring"
	"github.com/seamus-45/roficlip/pkg/types"
)

// Server exposes the stores over HTTP on the loopback interface. It only
// reads persisted snapshots and writes to the command channel; the daemon
// loop remains the only owner of the clipboard and the in-memory rings.
type Server struct {
	config   Config
	hub      *Hub
	srv      *http.Server
	listener net.Listener
	serveErr chan error
	log      *slog.Logger
}

type Config struct {
	Port     int
	Paths    config.Paths
	RingSize int
	Archive  storage.Archive // optional; enables /api/archive
	Logger   *slog.Logger
}

// entry is one store item as served by the API
type entry struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
}

func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}
	return &Server{
		config: config,
		hub:    newHub(config.Logger),
		log:    config.Logger,
	}
}

// Hub returns the websocket hub, to be registered as a change handler
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// Routes
	r.Get("/status", s.handleStatus)
	r.Get("/ws", s.serveWs)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Get("/archive", s.handleSearchArchive)
		r.Get("/{store}", s.handleGetStore)
		r.Post("/{store}/{index}/copy", s.handleCopy)
	})
	return r
}

// Start listens on 127.0.0.1 and serves in the background
func (s *Server) Start() error {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.serveErr = make(chan error, 1)

	go s.hub.run()
	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.serveErr <- err
	}()

	s.log.Info("http server started", "addr", ln.Addr().String())
	return nil
}

// Run starts the server and serves until ctx is cancelled or serving fails
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-s.serveErr:
		s.hub.stop()
		if err != nil {
			return fmt.Errorf("http server stopped: %w", err)
		}
		return nil
	}
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.hub.stop()
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"time":    time.Now().Format(time.RFC3339),
		"addr":    s.Addr(),
		"clients": s.hub.count(),
	}
	if s.config.Archive != nil {
		count, err := s.config.Archive.Count(r.Context())
		if err != nil {
			s.log.Warn("failed to count archive entries", "error", err)
		} else {
			status["archive_entries"] = count
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleGetStore(w http.ResponseWriter, r *http.Request) {
	rg, ok := s.loadStore(w, chi.URLParam(r, "store"))
	if !ok {
		return
	}
	items := rg.Items()
	entries := make([]entry, len(items))
	for i, item := range items {
		entries[i] = entry{Index: i, Content: item}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}
	rg, ok := s.loadStore(w, chi.URLParam(r, "store"))
	if !ok {
		return
	}
	content, ok := rg.At(index)
	if !ok {
		http.Error(w, fmt.Sprintf("no entry at index %d", index), http.StatusNotFound)
		return
	}

	if err := channel.Write(s.config.Paths.FIFO, []byte(content)); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, channel.ErrNoReader) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleSearchArchive(w http.ResponseWriter, r *http.Request) {
	if s.config.Archive == nil {
		http.Error(w, "archive disabled", http.StatusNotFound)
		return
	}
	opts := storage.SearchOptions{Query: r.URL.Query().Get("q")}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			opts.Limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			opts.Offset = parsed
		}
	}

	results, err := s.config.Archive.Search(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) loadStore(w http.ResponseWriter, store string) (*ring.Ring, bool) {
	var (
		rg  *ring.Ring
		err error
	)
	switch store {
	case types.StoreRing:
		rg, err = ring.Open(s.config.Paths.RingDB, s.config.RingSize)
	case types.StorePersistent:
		rg, err = ring.Open(s.config.Paths.PersistentDB, 0)
	default:
		http.Error(w, "unknown store", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.log.Warn("failed to load store", "store", store, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return rg, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
