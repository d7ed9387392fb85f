package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port      string `mapstructure:"PORT"`
	Env       string `mapstructure:"ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Redis
	RedisURL string        `mapstructure:"REDIS_URL"`
	CacheTTL time.Duration `mapstructure:"CACHE_TTL"`

	// Optimization
	SalaryCap               int    `mapstructure:"SALARY_CAP"`
	MaxLineups              int    `mapstructure:"MAX_LINEUPS"`
	OptimizationTimeout     int    `mapstructure:"OPTIMIZATION_TIMEOUT"`
	DefaultStrategy         string `mapstructure:"DEFAULT_STRATEGY"`
	DiversityPolicy         string `mapstructure:"DIVERSITY_POLICY"`
	ExhaustiveMaxIterations int64  `mapstructure:"EXHAUSTIVE_MAX_ITERATIONS"`
	ExhaustiveMaxCandidates int    `mapstructure:"EXHAUSTIVE_MAX_CANDIDATES"`
	SolverNodeLimit         int64  `mapstructure:"SOLVER_NODE_LIMIT"`
	SolverLPBound           bool   `mapstructure:"SOLVER_LP_BOUND"`

	// Slate source
	SlateURL                string        `mapstructure:"SLATE_URL"`
	SlateFile               string        `mapstructure:"SLATE_FILE"`
	ExternalAPITimeout      time.Duration `mapstructure:"EXTERNAL_API_TIMEOUT"`
	CircuitBreakerThreshold int           `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`
	SlateFetchRate          float64       `mapstructure:"SLATE_FETCH_RATE"`
	SlateFetchBurst         int           `mapstructure:"SLATE_FETCH_BURST"`
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	// Set defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("LOG_FORMAT", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("SALARY_CAP", 50000)
	v.SetDefault("MAX_LINEUPS", 50)
	v.SetDefault("OPTIMIZATION_TIMEOUT", 30) // seconds
	v.SetDefault("DEFAULT_STRATEGY", "exact")
	v.SetDefault("DIVERSITY_POLICY", "disjoint")
	v.SetDefault("EXHAUSTIVE_MAX_ITERATIONS", 2000000)
	v.SetDefault("EXHAUSTIVE_MAX_CANDIDATES", 1)
	v.SetDefault("SOLVER_NODE_LIMIT", 5000000)
	v.SetDefault("SOLVER_LP_BOUND", false)
	v.SetDefault("SLATE_URL", "")
	v.SetDefault("SLATE_FILE", "")
	v.SetDefault("EXTERNAL_API_TIMEOUT", "10s")  // Conservative timeout
	v.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 5) // Fail after 5 consecutive failures
	v.SetDefault("SLATE_FETCH_RATE", 2.0)        // requests per second to the slate URL
	v.SetDefault("SLATE_FETCH_BURST", 5)

	// Read from environment
	v.AutomaticEnv()

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the optimizer cannot run with
func (c *Config) Validate() error {
	if c.SalaryCap <= 0 {
		return fmt.Errorf("SALARY_CAP must be positive, got %d", c.SalaryCap)
	}
	if c.MaxLineups <= 0 {
		return fmt.Errorf("MAX_LINEUPS must be positive, got %d", c.MaxLineups)
	}
	if c.OptimizationTimeout <= 0 {
		return fmt.Errorf("OPTIMIZATION_TIMEOUT must be positive, got %d", c.OptimizationTimeout)
	}
	if c.ExhaustiveMaxCandidates <= 0 {
		return fmt.Errorf("EXHAUSTIVE_MAX_CANDIDATES must be positive, got %d", c.ExhaustiveMaxCandidates)
	}
	return nil
}

// Timeout returns OptimizationTimeout as a duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.OptimizationTimeout) * time.Second
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
