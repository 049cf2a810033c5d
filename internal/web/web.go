package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sharecal/internal/calendar"
	"sharecal/internal/config"
	appLog "sharecal/internal/log"
	"sharecal/internal/store"
)

// Server provides the HTTP API over the calendar engine: month views, day
// details, item mutations, the ICS feed, and the embedded calendar page.
type Server struct {
	cfg    *config.Config
	st     *store.Store
	engine *calendar.Engine
	loc    *time.Location
	debug  bool
	mux    *http.ServeMux

	// In-memory cache for month views to avoid redundant aggregation work
	// on every HTTP request. Invalidated wholesale after any mutation.
	monthMu    sync.RWMutex
	monthCache map[monthKey]*monthCacheEntry
}

type monthKey struct {
	Viewer string
	Year   int
	Month  time.Month
}

type monthCacheEntry struct {
	view      *calendar.MonthView
	updatedAt time.Time
}

const monthCacheTTL = 30 * time.Second

// embeddedStatic contains the calendar page served at /calendar.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, st *store.Store, engine *calendar.Engine, loc *time.Location, debug bool) *Server {
	s := &Server{
		cfg:        cfg,
		st:         st,
		engine:     engine,
		loc:        loc,
		debug:      debug,
		mux:        http.NewServeMux(),
		monthCache: make(map[monthKey]*monthCacheEntry),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// 빈 사용자명 또는 해시가 설정된 경우에는 비활성화로 취급한다.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.PasswordHash == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic
// Auth. Passwords are checked against the stored bcrypt hash.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	hash := []byte(s.cfg.BasicAuth.PasswordHash)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health 는 항상 무인증으로 노출한다.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || u != username || bcrypt.CompareHashAndPassword(hash, []byte(p)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="ShareCal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartServer starts an HTTP server bound to cfg.Listen and shuts it down
// gracefully when ctx is canceled.
func StartServer(ctx context.Context, cfg *config.Config, st *store.Store, engine *calendar.Engine, loc *time.Location, debug bool) error {
	s := NewServer(cfg, st, engine, loc, debug)
	srv := &http.Server{Addr: cfg.Listen, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen, "debug", debug)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/month", s.handleMonth)
	s.mux.HandleFunc("GET /api/day", s.handleDay)
	s.mux.HandleFunc("PATCH /api/items/{kind}/{id}", s.handleItemPatch)
	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)

	// Embedded calendar page; everything else 404s rather than serving HTML
	// under /api/*.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview serves the last captured PNG snapshot from disk.
// 경로 규칙은 cmd/sharecal 의 snapshot 파이프라인과 동일하게 맞춘다.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	previewPath := s.cfg.Snapshot.OutputPath
	if s.debug {
		previewPath = "./cache/preview.png"
	}
	http.ServeFile(w, r, previewPath)
}

// staticFileServer serves the embedded calendar page.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// 절대 /api/* 요청은 정적 UI에서 서빙하지 않는다.
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			http.NotFound(w, r)
			return
		}

		if path == "/calendar" {
			r = r.Clone(r.Context())
			r.URL.Path = "/calendar.html"
		}
		fileServer.ServeHTTP(w, r)
	})
}

// cachedMonthView returns a fresh-enough month view for the key, building
// one when the cache misses. Stale entries are replaced wholesale; derived
// views are never patched in place.
func (s *Server) cachedMonthView(ctx context.Context, key monthKey) (*calendar.MonthView, error) {
	now := time.Now()

	s.monthMu.RLock()
	entry := s.monthCache[key]
	s.monthMu.RUnlock()
	if entry != nil && now.Sub(entry.updatedAt) < monthCacheTTL {
		return entry.view, nil
	}

	view, err := s.engine.BuildMonthView(ctx, key.Viewer, key.Year, key.Month)
	if err != nil {
		return nil, err
	}

	s.monthMu.Lock()
	s.monthCache[key] = &monthCacheEntry{view: view, updatedAt: time.Now()}
	s.monthMu.Unlock()
	return view, nil
}

// invalidateMonthCache drops every cached view; a mutation may move an item
// across months and viewers, so partial invalidation is not worth the risk
// of divergence.
func (s *Server) invalidateMonthCache() {
	s.monthMu.Lock()
	s.monthCache = make(map[monthKey]*monthCacheEntry)
	s.monthMu.Unlock()
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
