package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rezonia/invoice-tally/internal/history"
	"github.com/rezonia/invoice-tally/internal/processor"
)

// DefaultMaxUploadBytes limits request bodies and uploaded files
const DefaultMaxUploadBytes = 20 << 20

// Config holds server configuration
type Config struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ProcessTimeout time.Duration
	MaxUploadBytes int64
	AllowOrigins   []string
	Debug          bool
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	pipeline *processor.Pipeline
	history  history.Store
	log      zerolog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithHistory enables the history endpoints and records processed invoices
func WithHistory(store history.Store) Option {
	return func(s *Server) {
		s.history = store
	}
}

// WithLogger sets the request logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// NewServer creates a new API server around an already configured pipeline
func NewServer(config *Config, pipeline *processor.Pipeline, opts ...Option) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if config.ProcessTimeout <= 0 {
		config.ProcessTimeout = 2 * time.Minute
	}
	if pipeline == nil {
		pipeline = processor.NewPipeline()
	}

	s := &Server{
		config:   config,
		pipeline: pipeline,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.log))
	router.Use(cors.New(corsConfig(config.AllowOrigins)))
	s.router = router

	s.setupRoutes()
	return s
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept"}
	c.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	c.ExposeHeaders = []string{"Content-Disposition", requestIDHeader}
	return c
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Upload route used by the browser client
	s.router.POST("/api/process", s.handleUpload)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/process", s.handleProcess)
		v1.POST("/compile", s.handleCompile)
		v1.POST("/validate", s.handleValidate)
		v1.POST("/verify", s.handleVerify)
		v1.POST("/info", s.handleInfo)

		h := v1.Group("/history")
		{
			h.GET("", s.handleHistoryList)
			h.DELETE("", s.handleHistoryClear)
			h.GET("/:id", s.handleHistoryGet)
			h.GET("/:id/xml", s.handleHistoryXML)
			h.GET("/:id/json", s.handleHistoryJSON)
			h.DELETE("/:id", s.handleHistoryDelete)
		}
	}
}

// Run starts the HTTP server and shuts it down when ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("address", s.config.Address).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"time":       time.Now().UTC().Format(time.RFC3339),
		"extraction": s.pipeline.HasExtractor(),
		"history":    s.history != nil,
		"mode":       s.pipeline.Compiler().Mode().String(),
	})
}
