package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/auth"
	"github.com/moneysignalai/breakpoint-engine/internal/database"
	"github.com/moneysignalai/breakpoint-engine/internal/scanner"
)

// RateLimiter provides simple in-memory rate limiting per endpoint
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int
	window   time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// Server represents the HTTP API server
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	cfg         *config.Config
	repo        *database.Repository
	scanner     *scanner.Scanner
	authService *auth.Service
	hub         *WSHub
	rateLimiter *RateLimiter
	log         zerolog.Logger
}

// NewServer creates a new API server. authService may be nil when auth is
// disabled; repo and scanner may be nil in degraded deployments.
func NewServer(
	cfg *config.Config,
	repo *database.Repository,
	sc *scanner.Scanner,
	authService *auth.Service,
	hub *WSHub,
	logger zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	origins := strings.Split(cfg.ServerConfig.AllowedOrigins, ",")
	if len(origins) == 1 && origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:      router,
		cfg:         cfg,
		repo:        repo,
		scanner:     sc,
		authService: authService,
		hub:         hub,
		rateLimiter: NewRateLimiter(120, time.Minute),
		log:         logger.With().Str("component", "api").Logger(),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/ws/alerts", s.handleAlertStream)

	api := s.router.Group("/api")
	api.Use(s.rateLimitMiddleware())
	{
		api.GET("/config", s.handleConfig)
		api.GET("/alerts", s.handleListAlerts)
		api.GET("/alerts/:id", s.handleGetAlert)
		api.GET("/scan/status", s.handleScanStatus)
	}

	if s.authService != nil {
		s.router.POST("/auth/token", s.handleIssueToken)
	}

	admin := api.Group("")
	admin.Use(auth.Middleware(s.authService))
	{
		admin.POST("/scan/run", s.handleRunScan)
		if s.cfg.ServerConfig.DebugEndpoints {
			admin.GET("/debug/decisions/:symbol", s.handleDebugDecision)
		}
	}
}

// rateLimitMiddleware rate limits requests by endpoint path.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.rateLimiter.Allow(c.FullPath()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf("%s:%d", s.cfg.ServerConfig.Host, s.cfg.ServerConfig.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ServerConfig.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.ServerConfig.WriteTimeout) * time.Second,
	}

	go func() {
		s.log.Info().Str("addr", addr).Msg("API server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("API server error")
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
