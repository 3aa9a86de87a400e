// Package server exposes the dashboard data as a JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/internal/pipeline"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/insights"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/spec"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/store"
)

// Client is the server-side view of the collaboration server.
type Client interface {
	pipeline.Source
	insights.Source
}

// History reads and records analysis runs. *store.Store satisfies it.
type History interface {
	pipeline.Recorder
	Latest(ctx context.Context, model string) (*store.Run, error)
	History(ctx context.Context, model string, limit int) ([]store.Run, error)
	CarbonTrend(ctx context.Context, model, category string) ([]store.TrendPoint, error)
}

// Config holds the server dependencies. History may be nil.
type Config struct {
	ProjectPath string
	Port        int
	Spec        *spec.ProjectSpec
	Client      Client
	History     History
	Logger      *zap.Logger
}

// Server is the dashboard API server.
type Server struct {
	projectPath string
	port        int
	spec        *spec.ProjectSpec
	client      Client
	history     History
	pipeline    *pipeline.Pipeline
	logger      *zap.Logger

	mu         sync.RWMutex
	latest     map[string]*store.Run
	refreshing atomic.Bool
}

// New creates a server for the given project.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		projectPath: cfg.ProjectPath,
		port:        cfg.Port,
		spec:        cfg.Spec,
		client:      cfg.Client,
		history:     cfg.History,
		logger:      logger,
		latest:      make(map[string]*store.Run),
	}
	s.pipeline = &pipeline.Pipeline{
		Source:      cfg.Client,
		Analysis:    &cfg.Spec.Analysis,
		Logger:      logger,
		Concurrency: cfg.Spec.Refresh.Concurrency,
	}
	if cfg.History != nil {
		s.pipeline.Recorder = cfg.History
	}
	return s
}

// CORSConfig allows the local dashboard front ends to call the API.
func CORSConfig() cors.Config {
	c := cors.DefaultConfig()
	c.AllowOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://localhost:8080",
	}
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	c.ExposeHeaders = []string{"Content-Disposition"}
	return c
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), cors.New(CORSConfig()))

	api := r.Group("/api")
	api.GET("/models", s.handleModels)
	api.GET("/analysis/:model", s.handleAnalysis)
	api.GET("/analysis/:model/export.xlsx", s.handleExportXLSX)
	api.GET("/analysis/:model/export.pdf", s.handleExportPDF)
	api.GET("/history/:model", s.handleHistory)
	api.GET("/history/:model/trend", s.handleTrend)
	api.GET("/insights", s.handleInsights)
	api.GET("/space", s.handleSpaceDefaults)
	api.POST("/space", s.handleSpace)
	api.GET("/validation", s.handleValidation)
	api.GET("/spec", s.handleSpec)
	r.GET("/", s.handleIndex)

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully. When a
// refresh schedule is configured, every model is re-analyzed on it.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if sched := s.spec.Refresh.Schedule; sched != "" {
		c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(zap.NewStdLog(s.logger.Named("cron")))))
		if _, err := c.AddFunc(sched, func() { s.RefreshAll(ctx) }); err != nil {
			return fmt.Errorf("scheduling refresh %q: %w", sched, err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		s.logger.Info("refresh scheduled", zap.String("schedule", sched))
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard server starting",
			zap.String("addr", "http://localhost"+srv.Addr),
			zap.String("project", s.projectPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// RefreshAll re-analyzes every configured model. Overlapping calls are
// skipped while one is running.
func (s *Server) RefreshAll(ctx context.Context) []pipeline.Outcome {
	if !s.refreshing.CompareAndSwap(false, true) {
		s.logger.Warn("previous refresh still running; skipping")
		return nil
	}
	defer s.refreshing.Store(false)

	outcomes := s.pipeline.RunAll(ctx, s.spec.Models)
	for _, o := range outcomes {
		if o.Err == nil {
			s.remember(o.Run)
		}
	}
	s.logger.Info("refresh finished",
		zap.Int("models", len(outcomes)),
		zap.Int("failed", len(pipeline.Failed(outcomes))))
	return outcomes
}

func (s *Server) remember(run *store.Run) {
	s.mu.Lock()
	s.latest[run.Model] = run
	s.mu.Unlock()
}

// analysis returns the latest run of a model from memory, then the
// history store, and analyzes the model when neither has one or refresh
// is requested.
func (s *Server) analysis(ctx context.Context, ref spec.ModelRef, refresh bool) (*store.Run, error) {
	if !refresh {
		s.mu.RLock()
		run, ok := s.latest[ref.Name]
		s.mu.RUnlock()
		if ok {
			return run, nil
		}
		if s.history != nil {
			run, err := s.history.Latest(ctx, ref.Name)
			switch {
			case err == nil:
				s.remember(run)
				return run, nil
			case !errors.Is(err, store.ErrNotFound):
				return nil, err
			}
		}
	}

	run, err := s.pipeline.Run(ctx, ref)
	if err != nil {
		return nil, err
	}
	s.remember(run)
	return run, nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
