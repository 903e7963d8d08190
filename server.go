package backend

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/indexer"
	"github.com/denysvitali/preclear/pkg/models"
	"github.com/denysvitali/preclear/pkg/orchestrator"
	"github.com/denysvitali/preclear/pkg/rules"
	"github.com/denysvitali/preclear/pkg/storage/model"
)

var log = logrus.StandardLogger().WithField("package", "backend")

const validationTimeout = 10 * time.Minute

type ShipmentValidator interface {
	ValidateShipmentDocuments(ctx context.Context, shipmentID string) (models.ValidationResult, error)
}

type RuleFinder interface {
	FindMatchingRules(q rules.Query) []models.ComplianceRule
	Len() int
}

// VerdictStore gives access to the indexed verdicts.
type VerdictStore interface {
	Get(ctx context.Context, shipmentID string) (*indexer.Verdict, error)
	Search(ctx context.Context, term string, size int) (*indexer.SearchResult, error)
	List(ctx context.Context, scrollID string) (*indexer.SearchResult, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ ShipmentValidator = (*orchestrator.Orchestrator)(nil)
	_ RuleFinder        = (*rules.Dataset)(nil)
	_ VerdictStore      = (*indexer.Indexer)(nil)
)

type Server struct {
	e         *gin.Engine
	validator ShipmentValidator
	rules     RuleFinder
	storage   model.Retriever
	verdicts  VerdictStore
	pinger    Pinger
	metrics   http.Handler
}

type Option func(*Server)

func WithVerdictStore(v VerdictStore) Option {
	return func(s *Server) {
		s.verdicts = v
	}
}

func WithPinger(p Pinger) Option {
	return func(s *Server) {
		s.pinger = p
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

func New(v ShipmentValidator, r RuleFinder, ret model.Retriever, opts ...Option) *Server {
	s := &Server{
		e:         gin.New(),
		validator: v,
		rules:     r,
		storage:   ret,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.initRoutes()
	return s
}

func (s *Server) Run(addr string) error {
	return s.e.Run(addr)
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) initRoutes() {
	s.e.Use(gin.Logger())
	s.e.Use(gin.Recovery())
	s.e.Use(cors.Default())

	s.e.GET("/healthz", s.handleHealthz)
	if s.metrics != nil {
		s.e.GET("/metrics", gin.WrapH(s.metrics))
	}

	g := s.e.Group("/api/v1")
	g.POST("/shipments/:id/validate", s.handleValidate)
	g.GET("/rules", s.handleGetRules)
	g.POST("/search", s.handleSearch)
	g.GET("/verdicts", s.handleGetVerdicts)
	g.GET("/verdicts/:shipmentId", s.handleGetVerdict)
	g.GET("/files/*key", s.handleGetFile)
}

var badRequest = gin.H{
	"error": "bad request",
}

var notFound = gin.H{
	"error": "not found",
}

var internalServerError = gin.H{
	"error": "internal server error",
}

var searchUnavailable = gin.H{
	"error": "verdict search is not configured",
}

func (s *Server) handleHealthz(c *gin.Context) {
	if s.pinger != nil {
		if err := s.pinger.Ping(c.Request.Context()); err != nil {
			log.Warnf("health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "rules": s.rules.Len()})
}

func (s *Server) handleValidate(c *gin.Context) {
	shipmentID := c.Param("id")
	if strings.TrimSpace(shipmentID) == "" {
		c.JSON(http.StatusBadRequest, badRequest)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), validationTimeout)
	defer cancel()

	result, err := s.validator.ValidateShipmentDocuments(ctx, shipmentID)
	if err != nil {
		if errors.Is(err, orchestrator.ErrShipmentNotFound) {
			c.JSON(http.StatusNotFound, notFound)
			return
		}
		log.Errorf("unable to validate shipment %s: %v", shipmentID, err)
		if result.RunID != "" {
			// the verdict was computed but could not be stored
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":  "unable to store the validation result",
				"result": result,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, internalServerError)
		return
	}
	c.JSON(http.StatusOK, result)
}

type RulesQuery struct {
	Origin      string `form:"origin"`
	Destination string `form:"destination"`
	Mode        string `form:"mode"`
	PackageType string `form:"packageType"`
	HSCode      string `form:"hsCode" binding:"omitempty,number,max=10"`
}

func (s *Server) handleGetRules(c *gin.Context) {
	var q RulesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, badRequest)
		return
	}

	matched := s.rules.FindMatchingRules(rules.Query{
		Origin:      q.Origin,
		Destination: q.Destination,
		Mode:        q.Mode,
		PackageType: q.PackageType,
		HSCode:      q.HSCode,
	})
	if matched == nil {
		matched = []models.ComplianceRule{}
	}
	c.JSON(http.StatusOK, gin.H{"rules": matched})
}

type SearchRequest struct {
	SearchTerm string `json:"searchTerm" binding:"required"`
	Size       int    `json:"size" binding:"omitempty,min=1,max=500"`
}

func (s *Server) handleSearch(c *gin.Context) {
	if s.verdicts == nil {
		c.JSON(http.StatusServiceUnavailable, searchUnavailable)
		return
	}
	var searchRequest SearchRequest
	if err := c.ShouldBindJSON(&searchRequest); err != nil {
		c.JSON(http.StatusBadRequest, badRequest)
		return
	}

	res, err := s.verdicts.Search(c.Request.Context(), searchRequest.SearchTerm, searchRequest.Size)
	if err != nil {
		log.Errorf("unable to perform search: %v", err)
		c.JSON(http.StatusInternalServerError, internalServerError)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleGetVerdicts(c *gin.Context) {
	if s.verdicts == nil {
		c.JSON(http.StatusServiceUnavailable, searchUnavailable)
		return
	}
	res, err := s.verdicts.List(c.Request.Context(), c.Query("scroll_id"))
	if err != nil {
		log.Warnf("unable to list verdicts: %v", err)
		c.JSON(http.StatusInternalServerError, internalServerError)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleGetVerdict(c *gin.Context) {
	if s.verdicts == nil {
		c.JSON(http.StatusServiceUnavailable, searchUnavailable)
		return
	}
	shipmentID := c.Param("shipmentId")
	v, err := s.verdicts.Get(c.Request.Context(), shipmentID)
	if err != nil {
		if errors.Is(err, indexer.ErrNotFound) {
			c.JSON(http.StatusNotFound, notFound)
			return
		}
		log.Warnf("unable to get verdict %s: %v", shipmentID, err)
		c.JSON(http.StatusInternalServerError, internalServerError)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) handleGetFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, badRequest)
		return
	}

	file, err := s.storage.Retrieve(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusNotFound, notFound)
			return
		}
		if errors.Is(err, model.ErrInvalidKey) {
			c.JSON(http.StatusBadRequest, badRequest)
			return
		}
		log.Errorf("unable to retrieve %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, internalServerError)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file.Reader); err != nil {
		log.Errorf("unable to copy: %v", err)
	}
}
