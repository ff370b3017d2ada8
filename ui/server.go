package ui

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"evdash/app"
	loader "evdash/internal/dataset"
	"evdash/internal/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Config holds the server dependencies
type Config struct {
	Service *app.DashboardService
	// Default is the configured source; nil until something is uploaded
	Default        loader.Source
	Upload         loader.Options
	MaxUploadBytes int64
	GinMode        string
	Logger         *zap.Logger
}

// Server serves the dashboard page, chart images and the JSON API
type Server struct {
	router    *gin.Engine
	service   *app.DashboardService
	templates *template.Template
	assets    fs.FS
	logger    *zap.Logger

	uploadOpts     loader.Options
	maxUploadBytes int64

	mu       sync.RWMutex
	fallback loader.Source
	upload   loader.Source
}

// NewServer creates a server with routes configured
func NewServer(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("dashboard service is required")
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}

	logger := logging.OrNop(cfg.Logger)
	templates, err := parseTemplates(embeddedFiles)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:         gin.New(),
		service:        cfg.Service,
		templates:      templates,
		assets:         embeddedFiles,
		logger:         logger,
		uploadOpts:     cfg.Upload,
		maxUploadBytes: cfg.MaxUploadBytes,
		fallback:       cfg.Default,
	}
	s.router.MaxMultipartMemory = cfg.MaxUploadBytes

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleDashboard)
	s.router.POST("/upload", s.handleUpload)
	s.router.POST("/upload/clear", s.handleClearUpload)
	s.router.GET("/charts/scatter.svg", s.handleScatter)
	s.router.GET("/charts/timeline.svg", s.handleTimeline)
	s.router.GET("/report.xlsx", s.handleReport)
	s.router.POST("/cache/reset", s.handleCacheReset)
	s.router.GET("/healthz", s.handleHealth)

	api := http.StripPrefix("/api", s.apiRouter())
	s.router.Any("/api/*path", gin.WrapH(api))
}

// currentSource is the latest upload, else the configured source
func (s *Server) currentSource() loader.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.upload != nil {
		return s.upload
	}
	return s.fallback
}

func (s *Server) setUpload(src loader.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upload = src
}

// Run serves on addr until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down http server")
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
