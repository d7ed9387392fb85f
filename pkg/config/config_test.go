package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 50000, cfg.SalaryCap)
	assert.Equal(t, 50, cfg.MaxLineups)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, "exact", cfg.DefaultStrategy)
	assert.Equal(t, "disjoint", cfg.DiversityPolicy)
	assert.Equal(t, 10*time.Second, cfg.ExternalAPITimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, int64(5000000), cfg.SolverNodeLimit)
	assert.False(t, cfg.SolverLPBound)
	assert.Equal(t, 1, cfg.ExhaustiveMaxCandidates)
	assert.Equal(t, 2.0, cfg.SlateFetchRate)
	assert.Equal(t, 5, cfg.SlateFetchBurst)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SALARY_CAP", "60000")
	t.Setenv("DIVERSITY_POLICY", "combination")
	t.Setenv("SOLVER_LP_BOUND", "true")
	t.Setenv("ENV", "production")
	t.Setenv("EXHAUSTIVE_MAX_CANDIDATES", "25")
	t.Setenv("SLATE_FETCH_RATE", "0.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 60000, cfg.SalaryCap)
	assert.Equal(t, "combination", cfg.DiversityPolicy)
	assert.True(t, cfg.SolverLPBound)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 25, cfg.ExhaustiveMaxCandidates)
	assert.Equal(t, 0.5, cfg.SlateFetchRate)
}

func TestLoadConfig_RejectsBadCap(t *testing.T) {
	t.Setenv("SALARY_CAP", "0")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_RejectsBadCandidateCount(t *testing.T) {
	t.Setenv("EXHAUSTIVE_MAX_CANDIDATES", "0")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "EXHAUSTIVE_MAX_CANDIDATES")
}
