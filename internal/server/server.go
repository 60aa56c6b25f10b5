// Package server exposes standardization runs over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/agenthands/modelstd/internal/core"
	"github.com/agenthands/modelstd/internal/core/model"
	"github.com/agenthands/modelstd/internal/core/review"
	"github.com/agenthands/modelstd/internal/core/translate"
	"github.com/agenthands/modelstd/internal/modelio"
)

type Server struct {
	Standardizer  *core.Standardizer
	Advisor       *review.Advisor
	Gatherer      prometheus.Gatherer
	Logger        *zap.Logger
	MaxIterations int
}

func NewServer(std *core.Standardizer, advisor *review.Advisor, gatherer prometheus.Gatherer, logger *zap.Logger, maxIterations int) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Standardizer:  std,
		Advisor:       advisor,
		Gatherer:      gatherer,
		Logger:        logger,
		MaxIterations: maxIterations,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/healthz", s.Health)
	if s.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}
	v1 := r.Group("/v1")
	v1.POST("/standardize", s.Standardize)
	v1.POST("/review", s.Review)

	return r
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type StandardizeRequest struct {
	// Model is a COBRA-style JSON model document.
	Model         json.RawMessage `json:"model" binding:"required"`
	MaxIterations int             `json:"max_iterations"`
	Approvals     []core.Approval `json:"approvals,omitempty"`
}

type StandardizeResponse struct {
	Model        json.RawMessage         `json:"model"`
	Translations *model.TranslationMap   `json:"translations"`
	Proposals    []model.ProposedMatch   `json:"proposals"`
	Clusters     [][]model.ProposedMatch `json:"clusters,omitempty"`
	Report       model.ComparisonReport  `json:"report"`
	Applied      translate.Stats         `json:"applied"`
}

func (s *Server) Standardize(c *gin.Context) {
	var req StandardizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	wm, err := modelio.Decode(bytes.NewReader(req.Model))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	maxIterations := req.MaxIterations
	if maxIterations == 0 {
		maxIterations = s.MaxIterations
	}
	if maxIterations < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_iterations must be at least 1"})
		return
	}

	res, err := s.Standardizer.Standardize(c.Request.Context(), wm, maxIterations)
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(req.Approvals) > 0 {
		if err := s.Standardizer.Approve(res, req.Approvals...); err != nil {
			var collision *model.CollisionError
			if errors.As(err, &collision) {
				s.fail(c, err)
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var buf bytes.Buffer
	if err := modelio.Encode(&buf, res.Model); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardizeResponse{
		Model:        buf.Bytes(),
		Translations: res.Translations,
		Proposals:    res.Proposals,
		Clusters:     review.Clusters(res.Proposals),
		Report:       res.Report,
		Applied:      res.Applied,
	})
}

type ReviewRequest struct {
	Proposals []model.ProposedMatch `json:"proposals" binding:"required"`
	// Model optionally gives the reviewer local names and formulas.
	Model json.RawMessage `json:"model,omitempty"`
}

func (s *Server) Review(c *gin.Context) {
	if s.Advisor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "review is disabled"})
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	var wm *model.WorkingModel
	if len(req.Model) > 0 {
		decoded, err := modelio.Decode(bytes.NewReader(req.Model))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		wm = decoded
	}

	advised, err := s.Advisor.Advise(c.Request.Context(), req.Proposals, wm)
	if err != nil {
		s.Logger.Error("review failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to review proposals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"proposals": advised,
		"clusters":  review.Clusters(advised),
	})
}

// fail maps model errors to 422 and everything else to 500.
func (s *Server) fail(c *gin.Context, err error) {
	var structural *model.StructuralError
	var collision *model.CollisionError
	if errors.As(err, &structural) || errors.As(err, &collision) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	s.Logger.Error("standardization failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to standardize model"})
}
