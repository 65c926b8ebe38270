package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server exposes the readings, exports and commands of a module over HTTP
type Server struct {
	addr   string
	module *Module
	creds  Credentials
	engine *gin.Engine
}

// NewServer constructs a server with routes and middleware.
func NewServer(addr string, module *Module, creds Credentials) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	s := &Server{addr: addr, module: module, creds: creds, engine: engine}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	api.GET("/readings", s.handleReadings)
	api.GET("/readings/:name", s.handleReading)
	api.GET("/state", s.handleState)
	api.GET("/calendar.ics", s.handleCalendar)
	api.GET("/upcoming", s.handleUpcoming)

	protected := api.Group("", RequireAuth(s.creds))
	protected.POST("/update", s.handleUpdate)
	protected.PUT("/attributes/:name", s.handleSetAttribute)
}
