package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/civigraph/resolve/internal/config"
	"github.com/civigraph/resolve/internal/core/community"
	"github.com/civigraph/resolve/internal/core/dedupe"
	"github.com/civigraph/resolve/internal/core/model"
	"github.com/civigraph/resolve/internal/driver"
	"github.com/civigraph/resolve/internal/embed"
)

// Server exposes the deduplication engine to the pipeline orchestrator over
// HTTP. The engine itself stays a library; this is just its thin transport.
type Server struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *driver.Store
	embedder embed.Client
}

// New wires the server. The graph store and embedder are both optional:
// without a store only inline requests are served, without an embedder the
// semantic signal uses the built-in TF-IDF index.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	s := &Server{cfg: cfg, log: log}

	if cfg.Store.URI != "" {
		d, err := driver.NewMemgraphDriver(cfg.Store.URI, cfg.Store.User, cfg.Store.Password, log)
		if err != nil {
			log.Warn("graph store unavailable, inline requests only", zap.Error(err))
		} else {
			s.store = driver.NewStore(d)
		}
	}

	embedder, err := embed.NewClient(ctx, cfg.Embedding)
	if err != nil {
		return nil, err
	}
	s.embedder = embedder

	return s, nil
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/health", s.Health)
	r.POST("/deduplicate", s.Deduplicate)
	r.POST("/communities", s.Communities)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type DeduplicateRequest struct {
	GroupID          string               `json:"group_id"`
	Preset           string               `json:"preset"`
	MinCombinedScore float64              `json:"min_combined_score"`
	Workers          int                  `json:"workers"`
	UseEmbeddings    bool                 `json:"use_embeddings"`
	WriteBack        bool                 `json:"write_back"`
	Entities         []model.Entity       `json:"entities"`
	Relationships    []model.Relationship `json:"relationships"`
}

func (s *Server) Deduplicate(c *gin.Context) {
	var req DeduplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	cfg, err := dedupe.PresetByName(req.Preset)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MinCombinedScore > 0 {
		cfg.MinCombinedScore = req.MinCombinedScore
	}
	if req.Workers > 0 {
		cfg.Workers = req.Workers
	}

	entities := req.Entities
	relationships := req.Relationships
	fromStore := false
	if len(entities) == 0 && req.GroupID != "" {
		if s.store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "graph store not configured"})
			return
		}
		entities, relationships, err = s.store.LoadGraph(c.Request.Context(), req.GroupID)
		if err != nil {
			s.log.Error("failed to load graph", zap.String("group_id", req.GroupID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load graph"})
			return
		}
		fromStore = true
	}

	opts := []dedupe.Option{dedupe.WithLogger(s.log)}
	if req.UseEmbeddings && s.embedder != nil {
		opts = append(opts, dedupe.WithEmbedder(s.embedder))
	}

	engine, err := dedupe.New(cfg, opts...)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := engine.Run(c.Request.Context(), entities, relationships)
	if err != nil {
		s.log.Error("deduplication failed", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if req.WriteBack {
		if !fromStore {
			c.JSON(http.StatusBadRequest, gin.H{"error": "write_back requires loading from the graph store"})
			return
		}
		if err := s.store.ApplyMerges(c.Request.Context(), req.GroupID, result.Entities, result.Report.Merges); err != nil {
			s.log.Error("failed to write merges back", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write merges back"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"report":   result.Report,
		"entities": result.Entities,
	})
}

type CommunitiesRequest struct {
	GroupID       string               `json:"group_id"`
	Entities      []model.Entity       `json:"entities"`
	Relationships []model.Relationship `json:"relationships"`
}

func (s *Server) Communities(c *gin.Context) {
	var req CommunitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	entities := req.Entities
	relationships := req.Relationships
	if len(entities) == 0 && req.GroupID != "" {
		if s.store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "graph store not configured"})
			return
		}
		var err error
		entities, relationships, err = s.store.LoadGraph(c.Request.Context(), req.GroupID)
		if err != nil {
			s.log.Error("failed to load graph", zap.String("group_id", req.GroupID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load graph"})
			return
		}
	}

	detector := community.NewLabelPropagationDetector()
	groups := detector.Detect(entities, relationships)

	c.JSON(http.StatusOK, gin.H{"communities": groups})
}
