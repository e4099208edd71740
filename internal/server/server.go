// Package server provides the JobPlus web front end: a server-rendered page
// driven by htmx, with one application session per browser.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobplus/internal/app"
	"github.com/jonathan/jobplus/internal/backend"
	"github.com/jonathan/jobplus/internal/config"
	"github.com/jonathan/jobplus/internal/geo"
	"github.com/jonathan/jobplus/internal/rendering"
	"github.com/jonathan/jobplus/internal/server/middleware"
	"github.com/jonathan/jobplus/internal/server/ratelimit"
	"github.com/jonathan/jobplus/internal/session"
	"github.com/jonathan/jobplus/internal/types"
)

// CookieName is the name of the browser session cookie.
const CookieName = "jobplus_session"

// BackendFactory creates the backend client for a new browser session.
type BackendFactory func() (app.Backend, error)

// Config holds server configuration
type Config struct {
	Port               int
	BackendURL         string
	IPLookupURL        string
	Timeout            time.Duration
	LocationAge        time.Duration
	SessionIdle        time.Duration
	DefaultCoordinates types.Coordinates

	Session   *config.SessionConfig
	RateLimit *ratelimit.Config

	// NewBackend overrides how backend clients are created. Each browser gets its
	// own client so backend cookies are never shared.
	NewBackend BackendFactory
}

// ConfigFrom builds the server configuration from the client configuration.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Port:        cfg.Port,
		BackendURL:  cfg.BackendURL,
		IPLookupURL: cfg.IPLookupURL,
		Timeout:     time.Duration(cfg.Timeout),
		LocationAge: time.Duration(cfg.LocationAge),
		SessionIdle: time.Duration(cfg.SessionIdle),
		DefaultCoordinates: types.Coordinates{
			Latitude:  cfg.DefaultLatitude,
			Longitude: cfg.DefaultLongitude,
		},
	}
}

// uiSession is everything kept for one browser.
type uiSession struct {
	state *session.State
	ctl   *app.Controller
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	cfg         Config
	store       *session.Store[*uiSession]
	renderer    *rendering.Renderer
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	locator     *geo.Resolver
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.DefaultCoordinates == (types.Coordinates{}) {
		cfg.DefaultCoordinates = types.DefaultCoordinates
	}
	if cfg.LocationAge <= 0 {
		cfg.LocationAge = geo.DefaultMaxAge
	}

	renderer, err := rendering.NewRenderer(cfg.LocationAge)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	if cfg.Session == nil {
		cfg.Session, err = config.NewSessionConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create session config: %w", err)
		}
	}
	if cfg.RateLimit == nil {
		cfg.RateLimit, err = ratelimit.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	if cfg.NewBackend == nil {
		baseURL, timeout := cfg.BackendURL, cfg.Timeout
		cfg.NewBackend = func() (app.Backend, error) {
			return backend.New(baseURL, timeout)
		}
	}

	s := &Server{
		cfg:         cfg,
		renderer:    renderer,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		jwtService:  NewJWTService(cfg.Session),
	}

	// The browser reports its own position, so only the IP fallback runs here.
	var ip geo.IPLookup
	if cfg.IPLookupURL != "" {
		ip = geo.NewIPInfo(cfg.IPLookupURL, cfg.Timeout)
	}
	s.locator = geo.NewResolver(nil, ip)
	s.store = session.NewStore(cfg.SessionIdle, s.newSession)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /ui/login", s.handleLogin)
	mux.HandleFunc("GET /ui/login", s.handleShowLogin)
	mux.HandleFunc("GET /ui/register", s.handleShowRegister)
	mux.HandleFunc("POST /ui/register", s.handleRegister)
	mux.HandleFunc("POST /ui/logout", s.handleLogout)

	mux.HandleFunc("POST /ui/position", s.handlePosition)
	mux.HandleFunc("POST /ui/position/failed", s.handlePositionFailed)

	mux.HandleFunc("GET /ui/nearby", s.handleNearby)
	mux.HandleFunc("GET /ui/favorites", s.handleFavorites)
	mux.HandleFunc("GET /ui/recommend", s.handleRecommend)
	mux.HandleFunc("POST /ui/items/{id}/favorite", s.handleToggleFavorite)

	sessions := middleware.SessionMiddleware(CookieName, s.jwtService.AsTokenValidator())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(sessions(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2*cfg.Timeout + 30*time.Second, // a handler may call the IP lookup and the backend
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) newSession(id string) (*uiSession, error) {
	b, err := s.cfg.NewBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	st := session.NewState(id)
	st.Coordinates = s.cfg.DefaultCoordinates

	ctl := app.New(b, s.locator, app.Options{ClientLocates: true, MaxAge: s.cfg.LocationAge})
	return &uiSession{state: st, ctl: ctl}, nil
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Server starting on %s", ln.Addr())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.store.Run(ctx, time.Minute)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		s.rateLimiter.Stop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	log.Println("Server stopped")
	return err
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[%s] %s %d completed in %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.Len()})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID returns the connection's IP address.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// locationIP returns the address to geolocate: the first public X-Forwarded-For
// entry, else the connection address. "" lets the lookup use the server's own address.
func (s *Server) locationIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for _, part := range strings.Split(fwd, ",") {
			if ip := geo.PublicIP(part); ip != "" {
				return ip
			}
		}
	}
	return geo.PublicIP(r.RemoteAddr)
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds() + 0.999)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d", info.Limit, info.Remaining)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
