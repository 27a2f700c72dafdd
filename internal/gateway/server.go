// Package gateway exposes a session over HTTP for browser front ends: JSON
// endpoints for the synced state and page actions, and a server-sent event
// stream of state snapshots.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/julianstephens/drivewise/internal/chat"
	"github.com/julianstephens/drivewise/internal/datasync"
	"github.com/julianstephens/drivewise/internal/logger"
)

// DefaultAllowOrigins are the local dev servers allowed by CORS.
var DefaultAllowOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
	"http://[::1]:3000", // IPv6 localhost
	"http://[::1]:5173",
}

type Config struct {
	Addr         string
	AllowOrigins []string
	Heartbeat    time.Duration // SSE keep-alive interval
	Debug        bool
}

// Server is the HTTP gateway for one session.
type Server struct {
	sync      *datasync.Context
	chat      *chat.Session
	heartbeat time.Duration
	router    *gin.Engine
	addr      string
}

func New(syncCtx *datasync.Context, session *chat.Session, cfg Config) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = DefaultAllowOrigins
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 30 * time.Second
	}

	s := &Server{
		sync:      syncCtx,
		chat:      session,
		heartbeat: cfg.Heartbeat,
		addr:      cfg.Addr,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{
			"GET", "POST", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Cache-Control",
		},
		AllowCredentials: true,
		ExposeHeaders: []string{
			"Content-Type", "Cache-Control", "Connection",
		},
	}))

	api := r.Group("/api")
	{
		api.GET("/state", s.getState)
		api.GET("/events", s.getEvents)
		api.POST("/sync", s.postSync)
		api.POST("/refresh/:page", s.postRefresh)
		api.POST("/chat", s.postChat)
		api.POST("/wellness", s.postWellness)
		api.POST("/auth/login", s.postLogin)
		api.POST("/auth/logout", s.postLogout)
	}
	s.router = r
	return s
}

// Handler returns the gateway's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Gateway listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("Gateway shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("Gateway request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
