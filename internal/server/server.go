// Package server exposes the trained models over HTTP: health and metrics
// endpoints plus a generate endpoint that upscales a posted low-res field.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rainscale/internal/hostinfo"
	"rainscale/internal/observability"
)

// Inferencer runs a checkpointed generator on one low-res field. An empty
// runID selects the most recent run.
type Inferencer interface {
	Generate(ctx context.Context, runID string, lowRes [][]float64) ([][]float64, error)
}

type GenerateRequest struct {
	RunID  string      `json:"run_id"`
	LowRes [][]float64 `json:"low_res" binding:"required"`
}

type GenerateResponse struct {
	RunID   string      `json:"run_id,omitempty"`
	HighRes [][]float64 `json:"high_res"`
}

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	inferencer Inferencer
	metrics    *observability.Metrics
	logger     *slog.Logger
}

func New(addr string, inferencer Inferencer, metrics *observability.Metrics, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:     engine,
		inferencer: inferencer,
		metrics:    metrics,
		logger:     logger,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/api/status", s.handleStatus)
	engine.POST("/api/generate", s.handleGenerate)
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the gin engine, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"host":   hostinfo.Collect(),
	})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.GenerateRequests.WithLabelValues("error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	highRes, err := s.inferencer.Generate(c.Request.Context(), req.RunID, req.LowRes)
	if err != nil {
		s.metrics.GenerateRequests.WithLabelValues("error").Inc()
		s.logger.Error("generate failed", "run_id", req.RunID, "err", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	s.metrics.GenerateRequests.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, GenerateResponse{RunID: req.RunID, HighRes: highRes})
}
