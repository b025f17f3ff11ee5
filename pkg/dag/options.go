package dag

import (
	"log"
	"time"

	"github.com/example/dagrunner/internal/observability"
)

const (
	defaultPoolWidth   = 5
	defaultPollTimeout = 5 * time.Second
)

// config holds the Executor's configurable knobs, set by Option
// values passed to NewExecutor.
type config struct {
	poolWidth   int
	pollTimeout time.Duration
	metrics     *observability.Metrics
	logger      *log.Logger
}

func defaultConfig() config {
	return config{
		poolWidth:   defaultPoolWidth,
		pollTimeout: defaultPollTimeout,
	}
}

// Option configures an Executor at construction time.
type Option[T comparable] func(*config)

// WithPoolWidth sets the number of concurrent workers. Values below 1
// are treated as 1.
func WithPoolWidth[T comparable](width int) Option[T] {
	return func(c *config) { c.poolWidth = width }
}

// WithPollTimeout sets how long Pool.Poll waits for a completion
// before the driver loop re-checks for new work.
func WithPollTimeout[T comparable](timeout time.Duration) Option[T] {
	return func(c *config) { c.pollTimeout = timeout }
}

// WithMetrics attaches a metrics sink. Without it, Executor.Run
// records nothing.
func WithMetrics[T comparable](m *observability.Metrics) Option[T] {
	return func(c *config) { c.metrics = m }
}

// WithLogger attaches a logger. Without it, Executor.Run stays silent
// except for the fault it panics with.
func WithLogger[T comparable](l *log.Logger) Option[T] {
	return func(c *config) { c.logger = l }
}
