package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

// Engine is the narrow slice of surveillance.Engine the admin API depends
// on.
type Engine interface {
	GetStatistics() surveillance.Snapshot
	TogglePattern(name string, enabled bool) error
	UpdatePatternConfig(name string, cfg surveillance.PatternConfig) error
	State() surveillance.LifecycleState
}

// Server wraps a gin engine exposing the admin routes.
type Server struct {
	router *gin.Engine
	engine Engine
	logger *zap.Logger
	hub    *alertHub
}

// New builds the admin API server, wiring the route groups the way this
// codebase's own service API sets up detection/alerts/investigations
// groups under a shared router.
func New(engine Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	s := &Server{router: router, engine: engine, logger: logger, hub: newAlertHub()}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	statsGroup := s.router.Group("/statistics")
	statsGroup.GET("", s.handleGetStatistics)

	patterns := s.router.Group("/patterns")
	patterns.POST("/:name/toggle", s.handleTogglePattern)
	patterns.POST("/:name/config", s.handleUpdatePatternConfig)

	alerts := s.router.Group("/alerts")
	alerts.GET("/stream", s.handleAlertStream)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, ok("engine is "+s.engine.State().String(), nil))
}

func (s *Server) handleGetStatistics(c *gin.Context) {
	snapshot := s.engine.GetStatistics()
	c.JSON(http.StatusOK, ok("", snapshot))
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleTogglePattern(c *gin.Context) {
	name := c.Param("name")
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail(NewProblem(TypeValidation, "invalid request body", http.StatusBadRequest, err.Error())))
		return
	}
	if err := s.engine.TogglePattern(name, req.Enabled); err != nil {
		c.JSON(http.StatusNotFound, fail(NewProblem(TypeNotFound, "unknown pattern", http.StatusNotFound, err.Error())))
		return
	}
	c.JSON(http.StatusOK, ok("pattern updated", gin.H{"name": name, "enabled": req.Enabled}))
}

func (s *Server) handleUpdatePatternConfig(c *gin.Context) {
	name := c.Param("name")
	var cfg surveillance.PatternConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, fail(NewProblem(TypeValidation, "invalid config body", http.StatusBadRequest, err.Error())))
		return
	}
	if err := s.engine.UpdatePatternConfig(name, cfg); err != nil {
		c.JSON(http.StatusNotFound, fail(NewProblem(TypeNotFound, "unknown pattern", http.StatusNotFound, err.Error())))
		return
	}
	c.JSON(http.StatusOK, ok("pattern config updated", gin.H{"name": name}))
}

// Send implements surveillance.AlertSink by fanning the alert out to every
// connected websocket client. Engine wiring registers the server itself as
// (part of) the dispatcher's AlertSink.
func (s *Server) Send(alert surveillance.Alert) error {
	s.hub.broadcast(alert)
	return nil
}

// Run starts the HTTP server, blocking until it exits or errors.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
