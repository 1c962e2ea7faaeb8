package recurrence

import (
	"io"
	"log/slog"
	"time"
)

// EngineConfig holds configuration options for the expansion engine
type EngineConfig struct {
	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig

	// MaxOccurrencesPerTask caps a single rule expansion. Overflow is
	// truncated and logged, never fatal. Zero means the default cap.
	MaxOccurrencesPerTask int

	// Evaluator overrides the default rrule-go backed evaluator.
	Evaluator RuleEvaluator

	// Logger receives per-record skip diagnostics. Nil discards them.
	Logger *slog.Logger
}

const defaultMaxOccurrencesPerTask = 1000

// DefaultEngineConfig provides sensible defaults for production use
var DefaultEngineConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig:  DefaultCacheConfig,

	MaxOccurrencesPerTask: defaultMaxOccurrencesPerTask,
}

// HighPerformanceConfig is optimized for high-traffic scenarios
var HighPerformanceConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             30 * time.Minute, // Longer cache TTL
		MaxEntries:      5000,             // More cache entries
		CleanupInterval: 10 * time.Minute, // Less frequent cleanup
	},

	MaxOccurrencesPerTask: 500,
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             5 * time.Minute, // Shorter cache TTL
		MaxEntries:      100,             // Fewer cache entries
		CleanupInterval: 2 * time.Minute, // More frequent cleanup
	},

	MaxOccurrencesPerTask: defaultMaxOccurrencesPerTask,
}

// DisabledCacheConfig turns off rule caching entirely
var DisabledCacheConfig = EngineConfig{
	CacheEnabled: false,
	CacheConfig:  CacheConfig{}, // Not used

	MaxOccurrencesPerTask: defaultMaxOccurrencesPerTask,
}

// NewEngineWithConfig creates a new expansion engine with custom configuration
func NewEngineWithConfig(config EngineConfig) *Engine {
	var cache *RuleCache
	if config.CacheEnabled {
		cache = NewRuleCache(config.CacheConfig)
	}

	if config.MaxOccurrencesPerTask <= 0 {
		config.MaxOccurrencesPerTask = defaultMaxOccurrencesPerTask
	}

	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	evaluator := config.Evaluator
	if evaluator == nil {
		evaluator = &rruleEvaluator{cache: cache}
	}

	return &Engine{
		evaluator: evaluator,
		cache:     cache,
		config:    config,
		logger:    config.Logger,
	}
}
