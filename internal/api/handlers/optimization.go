package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/lineup-optimizer/internal/api/middleware"
	"github.com/stitts-dev/lineup-optimizer/internal/ingest"
	"github.com/stitts-dev/lineup-optimizer/internal/models"
	"github.com/stitts-dev/lineup-optimizer/internal/optimizer"
	"github.com/stitts-dev/lineup-optimizer/pkg/cache"
	"github.com/stitts-dev/lineup-optimizer/pkg/config"
	"github.com/stitts-dev/lineup-optimizer/pkg/logger"
	"github.com/stitts-dev/lineup-optimizer/pkg/utils"
)

// Progress message types pushed over the websocket
const (
	MessageProgress = "optimization_progress"
	MessageComplete = "optimization_complete"
	MessageFailed   = "optimization_failed"
)

// SlateLoader provides the current player slate
type SlateLoader interface {
	Load(ctx context.Context) (*ingest.Slate, error)
	Ready() error
}

// ProgressPublisher pushes progress messages to a subscribed client
type ProgressPublisher interface {
	SendToClient(clientID, messageType string, data interface{})
}

// OptimizeRequest is the body of POST /optimize and /optimize/validate
type OptimizeRequest struct {
	NumLineups int      `json:"num_lineups" binding:"required,min=1"`
	SalaryCap  int      `json:"salary_cap" binding:"omitempty,min=1"`
	Locks      []string `json:"locks"`
	Excludes   []string `json:"excludes"`
	StackTeam  string   `json:"stack_team"`
	Strategy   string   `json:"strategy"`
	Policy     string   `json:"policy"`
	TimeoutMS  int      `json:"timeout_ms" binding:"omitempty,min=1"`
	ClientID   string   `json:"client_id"`

	// MaxCandidates is how many feasible lineups the exhaustive strategy
	// compares before returning the best one
	MaxCandidates int `json:"max_candidates" binding:"omitempty,min=1"`
}

// OptimizationHandler handles optimization-related endpoints
type OptimizationHandler struct {
	slates   SlateLoader
	cache    cache.Store
	progress ProgressPublisher
	config   *config.Config
	logger   *logrus.Entry
}

// NewOptimizationHandler creates a new optimization handler. progress may be nil.
func NewOptimizationHandler(
	slates SlateLoader,
	store cache.Store,
	progress ProgressPublisher,
	cfg *config.Config,
	logger *logrus.Entry,
) *OptimizationHandler {
	return &OptimizationHandler{
		slates:   slates,
		cache:    store,
		progress: progress,
		config:   cfg,
		logger:   logger.WithField("handler", "optimization"),
	}
}

// run is a request resolved against the slate and configuration
type run struct {
	slate       *ingest.Slate
	pool        *models.Pool
	constraints *optimizer.Constraints
	strategy    optimizer.Strategy
	policy      optimizer.Policy
	candidates  int
}

// cacheFingerprint is everything that determines an optimization result
type cacheFingerprint struct {
	NumLineups int                    `json:"num_lineups"`
	Constraint *optimizer.Constraints `json:"constraints"`
	Strategy   string                 `json:"strategy"`
	Policy     optimizer.Policy       `json:"policy"`
	Candidates int                    `json:"candidates"`
}

// OptimizeLineups handles lineup optimization requests
func (h *OptimizationHandler) OptimizeLineups(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request format", err.Error())
		return
	}

	r, ok := h.resolve(c, req)
	if !ok {
		return
	}

	cacheKey, err := cache.Key(cacheFingerprint{
		NumLineups: req.NumLineups,
		Constraint: r.constraints,
		Strategy:   r.strategy.Name(),
		Policy:     r.policy,
		Candidates: r.candidates,
	}, r.slate.Players)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to build cache key")
	}
	if cacheKey != "" {
		var cached optimizer.Result
		if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil {
			h.logger.WithField("cache_key", cacheKey).Info("Returning cached optimization result")
			utils.SendSuccessWithMeta(c, cached, &utils.Meta{Total: len(cached.Lineups), Cached: true, Source: r.slate.Source})
			return
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.WithError(err).Warn("Failed to read optimization cache")
		}
	}

	timeout := h.config.Timeout()
	if req.TimeoutMS > 0 {
		timeout = time.Duration(req.TimeoutMS) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	result, err := optimizer.GenerateLineups(ctx, r.pool, r.constraints, optimizer.Request{
		NumLineups: req.NumLineups,
		MaxLineups: h.config.MaxLineups,
		Policy:     r.policy,
		Strategy:   r.strategy,
		Progress:   h.progressFunc(req.ClientID),
	})
	if err != nil {
		h.publish(req.ClientID, MessageFailed, gin.H{"error": err.Error()})
		h.logger.WithError(err).WithField("request_id", middleware.RequestID(c)).Warn("Optimization produced no lineups")
		sendOptimizationError(c, err)
		return
	}

	logger.WithRequestContext(middleware.RequestID(c), result.OptimizationID).WithFields(logrus.Fields{
		"lineups":     len(result.Lineups),
		"partial":     result.Partial,
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("Optimization request served")

	// Partial results depend on the deadline, not just the inputs
	if cacheKey != "" && !result.Partial {
		if err := h.cache.Set(c.Request.Context(), cacheKey, result, h.config.CacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache optimization result")
		}
	}

	h.publish(req.ClientID, MessageComplete, gin.H{
		"optimization_id": result.OptimizationID,
		"generated":       len(result.Lineups),
		"requested":       result.Requested,
		"partial":         result.Partial,
		"reason":          result.Reason,
	})
	utils.SendSuccessWithMeta(c, result, &utils.Meta{Total: len(result.Lineups), Source: r.slate.Source})
}

// ValidateOptimizationRequest runs the constraint builder without searching
func (h *OptimizationHandler) ValidateOptimizationRequest(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request format", err.Error())
		return
	}

	r, ok := h.resolve(c, req)
	if !ok {
		return
	}
	utils.SendSuccess(c, gin.H{
		"valid":          true,
		"constraints":    r.constraints,
		"strategy":       r.strategy.Name(),
		"policy":         r.policy,
		"pool_size":      r.pool.Len(),
		"max_candidates": r.candidates,
	})
}

// resolve loads the slate and turns the request into constraints and a
// strategy. It writes the error response itself and reports false on failure.
func (h *OptimizationHandler) resolve(c *gin.Context, req OptimizeRequest) (*run, bool) {
	maxLineups := h.config.MaxLineups
	if maxLineups <= 0 {
		maxLineups = optimizer.DefaultMaxLineups
	}
	if req.NumLineups > maxLineups {
		utils.SendValidationError(c, "Too many lineups requested", "num_lineups must be at most "+strconv.Itoa(maxLineups))
		return nil, false
	}

	slate, err := h.slates.Load(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load slate")
		sendSlateError(c, err)
		return nil, false
	}
	pool, err := slate.Pool()
	if err != nil {
		sendSlateError(c, err)
		return nil, false
	}

	salaryCap := h.config.SalaryCap
	if req.SalaryCap > 0 {
		salaryCap = req.SalaryCap
	}
	constraints, err := optimizer.BuildConstraints(pool, optimizer.ConstraintRequest{
		Template:  models.ClassicTemplate(),
		SalaryCap: salaryCap,
		Locks:     req.Locks,
		Excludes:  req.Excludes,
		StackTeam: req.StackTeam,
	})
	if err != nil {
		sendOptimizationError(c, err)
		return nil, false
	}

	policy, err := optimizer.ParsePolicy(firstNonEmpty(req.Policy, h.config.DiversityPolicy))
	if err != nil {
		sendOptimizationError(c, err)
		return nil, false
	}
	candidates := h.config.ExhaustiveMaxCandidates
	if req.MaxCandidates > 0 {
		candidates = req.MaxCandidates
	}
	strategy, err := optimizer.NewStrategy(firstNonEmpty(req.Strategy, h.config.DefaultStrategy), optimizer.StrategyOptions{
		NodeLimit:     h.config.SolverNodeLimit,
		LPBound:       h.config.SolverLPBound,
		MaxIterations: h.config.ExhaustiveMaxIterations,
		MaxCandidates: candidates,
		Logger:        h.logger,
	})
	if err != nil {
		sendOptimizationError(c, err)
		return nil, false
	}

	return &run{
		slate:       slate,
		pool:        pool,
		constraints: constraints,
		strategy:    strategy,
		policy:      policy,
		candidates:  candidates,
	}, true
}

func (h *OptimizationHandler) progressFunc(clientID string) func(optimizer.ProgressUpdate) {
	if clientID == "" || h.progress == nil {
		return nil
	}
	return func(update optimizer.ProgressUpdate) {
		h.progress.SendToClient(clientID, MessageProgress, update)
	}
}

func (h *OptimizationHandler) publish(clientID, messageType string, data interface{}) {
	if clientID == "" || h.progress == nil {
		return
	}
	h.progress.SendToClient(clientID, messageType, data)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
