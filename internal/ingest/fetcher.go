package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
)

// maxSlateBytes bounds how much of a remote slate is read
const maxSlateBytes = 10 << 20

// ErrSlateTooLarge is returned when a remote slate exceeds the read limit
var ErrSlateTooLarge = errors.New("slate exceeds size limit")

// Slate is a parsed player pool together with its ingestion report
type Slate struct {
	Source  string          `json:"source"`
	Players []models.Player `json:"players"`
	Report  Report          `json:"report"`
}

// Pool validates the slate players into an optimizer pool
func (s *Slate) Pool() (*models.Pool, error) {
	return models.NewPool(s.Players)
}

// Fetcher downloads slates behind a rate limiter and a circuit breaker
type Fetcher struct {
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	maxBytes       int64
	logger         *logrus.Entry
}

// NewFetcher creates a fetcher with a request timeout and a breaker that
// opens after threshold consecutive failures
func NewFetcher(timeout time.Duration, threshold int, logger *logrus.Entry) *Fetcher {
	if threshold <= 0 {
		threshold = 5
	}
	log := logger.WithField("component", "slate_fetcher")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "slate-source",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"circuit":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("Slate source circuit breaker state changed")
		},
	})

	return &Fetcher{
		httpClient:     &http.Client{Timeout: timeout},
		circuitBreaker: cb,
		rateLimiter:    rate.NewLimiter(rate.Inf, 1),
		maxBytes:       maxSlateBytes,
		logger:         log,
	}
}

// WithRateLimit throttles remote fetches to perSecond requests with the given
// burst. A non-positive rate leaves fetches unthrottled.
func (f *Fetcher) WithRateLimit(perSecond float64, burst int) *Fetcher {
	if perSecond <= 0 {
		f.rateLimiter = rate.NewLimiter(rate.Inf, 1)
		return f
	}
	if burst < 1 {
		burst = 1
	}
	f.rateLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return f
}

// Fetch downloads and parses a CSV slate. Waiting for the rate limiter
// honors ctx and does not count against the breaker.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Slate, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("slate fetch throttled: %w", err)
	}
	body, err := f.circuitBreaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build slate request: %w", err)
		}
		resp, err := f.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch slate: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("slate source returned status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read slate body: %w", err)
		}
		if int64(len(data)) > f.maxBytes {
			return nil, fmt.Errorf("%w: more than %d bytes", ErrSlateTooLarge, f.maxBytes)
		}
		return data, nil
	})
	if err != nil {
		f.logger.WithError(err).WithField("url", url).Error("Slate fetch failed")
		return nil, err
	}

	return f.parse(url, body.([]byte))
}

// Load reads a slate from a local file
func (f *Fetcher) Load(path string) (*Slate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read slate file: %w", err)
	}
	return f.parse(path, data)
}

// State exposes the breaker state for readiness checks
func (f *Fetcher) State() gobreaker.State {
	return f.circuitBreaker.State()
}

func (f *Fetcher) parse(source string, data []byte) (*Slate, error) {
	players, report, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	f.logger.WithFields(logrus.Fields{
		"source":  source,
		"rows":    report.Rows,
		"kept":    report.Kept,
		"dropped": report.Dropped,
	}).Info("Slate loaded")
	return &Slate{Source: source, Players: players, Report: report}, nil
}
