package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/lineup-optimizer/internal/ingest"
	"github.com/stitts-dev/lineup-optimizer/internal/models"
	"github.com/stitts-dev/lineup-optimizer/internal/optimizer"
	"github.com/stitts-dev/lineup-optimizer/pkg/cache"
	"github.com/stitts-dev/lineup-optimizer/pkg/config"
	"github.com/stitts-dev/lineup-optimizer/pkg/utils"
)

type staticSlate struct {
	slate *ingest.Slate
	err   error
}

func (s staticSlate) Load(context.Context) (*ingest.Slate, error) { return s.slate, s.err }
func (s staticSlate) Ready() error                                { return s.err }

type message struct {
	clientID string
	kind     string
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []message
}

func (r *recordingPublisher) SendToClient(clientID, messageType string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message{clientID: clientID, kind: messageType})
}

func fullSlate() *ingest.Slate {
	players := []models.Player{
		{ID: "qb1", Name: "qb1", Team: "KC", Position: models.PositionQB, Salary: 6000, Projection: 22},
		{ID: "rb1", Name: "rb1", Team: "SF", Position: models.PositionRB, Salary: 6000, Projection: 18},
		{ID: "rb2", Name: "rb2", Team: "DAL", Position: models.PositionRB, Salary: 5000, Projection: 15},
		{ID: "rb3", Name: "rb3", Team: "MIA", Position: models.PositionRB, Salary: 4000, Projection: 11},
		{ID: "wr1", Name: "wr1", Team: "KC", Position: models.PositionWR, Salary: 6000, Projection: 17},
		{ID: "wr2", Name: "wr2", Team: "MIA", Position: models.PositionWR, Salary: 5000, Projection: 14},
		{ID: "wr3", Name: "wr3", Team: "BUF", Position: models.PositionWR, Salary: 4000, Projection: 12},
		{ID: "te1", Name: "te1", Team: "KC", Position: models.PositionTE, Salary: 4000, Projection: 10},
		{ID: "dst1", Name: "dst1", Team: "SF", Position: models.PositionDST, Salary: 3000, Projection: 7},
	}
	return &ingest.Slate{Source: "memory", Players: players, Report: ingest.Report{Rows: 9, Kept: 9}}
}

func testHandler(slates SlateLoader, progress ProgressPublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{
		SalaryCap:           50000,
		MaxLineups:          10,
		OptimizationTimeout: 10,
		CacheTTL:            time.Minute,
	}
	h := NewOptimizationHandler(slates, cache.NewMemoryCache(), progress, cfg, logrus.NewEntry(log))
	router := gin.New()
	router.POST("/optimize", h.OptimizeLineups)
	return router
}

func post(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/optimize", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestOptimizeLineups_PublishesProgress(t *testing.T) {
	pub := &recordingPublisher{}
	router := testHandler(staticSlate{slate: fullSlate()}, pub)

	w := post(router, `{"num_lineups": 2, "client_id": "abc"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Nine players only fill one disjoint lineup
	assert.Contains(t, w.Body.String(), `"partial":true`)
	assert.Equal(t, []message{
		{clientID: "abc", kind: MessageProgress},
		{clientID: "abc", kind: MessageComplete},
	}, pub.messages)
}

func TestOptimizeLineups_NoClientNoMessages(t *testing.T) {
	pub := &recordingPublisher{}
	router := testHandler(staticSlate{slate: fullSlate()}, pub)

	w := post(router, `{"num_lineups": 1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, pub.messages)
}

func TestOptimizeLineups_FailurePublished(t *testing.T) {
	pub := &recordingPublisher{}
	router := testHandler(staticSlate{slate: fullSlate()}, pub)

	w := post(router, `{"num_lineups": 1, "salary_cap": 30000, "client_id": "abc"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []message{{clientID: "abc", kind: MessageFailed}}, pub.messages)
}

func TestOptimizeLineups_SlateErrors(t *testing.T) {
	router := testHandler(staticSlate{err: errors.New("connection refused")}, nil)
	w := post(router, `{"num_lineups": 1}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "SLATE_UNAVAILABLE")

	bad := &ingest.Slate{Players: []models.Player{{ID: "x", Name: "x", Team: "KC", Position: models.PositionQB, Salary: -1}}}
	router = testHandler(staticSlate{slate: bad}, nil)
	w = post(router, `{"num_lineups": 1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "exact", firstNonEmpty(" ", "exact", "greedy"))
	assert.Equal(t, "", firstNonEmpty("", " "))
}

func TestOptimizationErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("%w: bad cap", optimizer.ErrInvalidConstraints), utils.ErrCodeValidation},
		{fmt.Errorf("%w: dup", optimizer.ErrInvalidPool), utils.ErrCodeValidation},
		{fmt.Errorf("%w: team NYJ", optimizer.ErrNoStackAvailable), utils.ErrCodeNoStack},
		{fmt.Errorf("could only produce 0 of 1 lineups: %w", optimizer.ErrInfeasible), utils.ErrCodeInfeasible},
		{fmt.Errorf("could only produce 0 of 1 lineups: %w", optimizer.ErrDeadlineExceeded), utils.ErrCodeTimeout},
		{fmt.Errorf("%w: slot 3", optimizer.ErrAssignment), utils.ErrCodeInvalidLineup},
		{errors.New("boom"), utils.ErrCodeOptimization},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, optimizationError(tt.err).Code, tt.err.Error())
	}

	assert.Equal(t, utils.ErrCodeSlateMalformed, slateError(fmt.Errorf("%w: POS", ingest.ErrMissingColumn)).Code)
	assert.Equal(t, utils.ErrCodeSlateUnavailable, slateError(ingest.ErrNoSlateSource).Code)
	assert.Equal(t, utils.ErrCodeSlateMalformed, slateError(fmt.Errorf("%w: more than 10 bytes", ingest.ErrSlateTooLarge)).Code)
}
