package dashboard

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bolsawatch/internal/config"
	"bolsawatch/internal/market"
)

// Clearer wipes persisted history and in-memory alert state.
type Clearer interface {
	ClearAll(ctx context.Context) error
}

// Server exposes the dashboard over HTTP. It caches the latest cycle
// snapshot; handlers never touch the store or the exchange API directly.
type Server struct {
	cfg     config.DashboardConfig
	engine  *gin.Engine
	logger  zerolog.Logger
	clearer Clearer

	mu     sync.RWMutex
	latest market.Snapshot
	ready  bool
}

// NewServer constructs the dashboard server.
func NewServer(cfg config.DashboardConfig, clearer Clearer, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:     cfg,
		engine:  gin.New(),
		logger:  logger.With().Str("component", "dashboard").Logger(),
		clearer: clearer,
	}
	s.engine.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", s.getIndex)
	s.engine.GET("/api/snapshot", s.getSnapshot)
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/sparkline/:nemo", s.getSparkline)
	s.engine.POST("/api/history/clear", s.postClear)
}

// Publish stores the latest cycle snapshot for the handlers.
func (s *Server) Publish(snapshot market.Snapshot) {
	s.mu.Lock()
	s.latest = snapshot
	s.ready = true
	s.mu.Unlock()
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Listen, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("listen", s.cfg.Listen).Msg("dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) snapshot() (market.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.ready
}

func (s *Server) getSnapshot(c *gin.Context) {
	snapshot, ready := s.snapshot()
	if !ready {
		c.JSON(http.StatusOK, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true, "snapshot": snapshot})
}

func (s *Server) getHealth(c *gin.Context) {
	snapshot, ready := s.snapshot()
	resp := gin.H{"status": "ok", "ready": ready}
	if ready {
		resp["updated_at"] = snapshot.UpdatedAt
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) postClear(c *gin.Context) {
	if s.clearer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history store not configured"})
		return
	}
	if err := s.clearer.ClearAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.mu.Lock()
	s.latest = market.Snapshot{}
	s.ready = false
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (s *Server) getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}
