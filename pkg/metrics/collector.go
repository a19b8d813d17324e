package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/formguard/pkg/message"
)

// Config controls metric naming and collection.
type Config struct {
	Enabled         bool      `env:"METRICS_ENABLED" envDefault:"true"`
	Namespace       string    `env:"METRICS_NAMESPACE" envDefault:"formguard"`
	Subsystem       string    `env:"METRICS_SUBSYSTEM"`
	DurationBuckets []float64 `env:"METRICS_DURATION_BUCKETS" envSeparator:","`
	MaxForms        int       `env:"METRICS_MAX_FORMS" envDefault:"1000"`
}

// OtherForm is the label value used once the form id limit is reached.
const OtherForm = "other"

// Collector records engine metrics into its own Prometheus registry.
type Collector struct {
	cfg      Config
	registry *prometheus.Registry
	forms    *CardinalityLimiter

	validations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	failed      *prometheus.HistogramVec
	failures    *prometheus.CounterVec
	messages    *prometheus.CounterVec
	created     prometheus.Counter
	scanErrors  prometheus.Counter
}

// NewCollector creates a collector and registers its metrics with registry.
// A nil registry gets a fresh one.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "formguard"
	}
	if len(cfg.DurationBuckets) == 0 {
		// 10µs to ~40ms
		cfg.DurationBuckets = prometheus.ExponentialBuckets(0.00001, 2, 13)
	}
	if cfg.MaxForms <= 0 {
		cfg.MaxForms = 1000
	}

	c := &Collector{
		cfg:      cfg,
		registry: registry,
		forms:    NewCardinalityLimiter(cfg.MaxForms),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "validations_total",
			Help:      "Total number of form validation runs by outcome",
		}, []string{"form", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "validation_duration_seconds",
			Help:      "Duration of a full form validation run",
			Buckets:   cfg.DurationBuckets,
		}, []string{"form"}),
		failed: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "validation_failed_units",
			Help:      "Number of failing units per validation run",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}, []string{"form"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "rule_failures_total",
			Help:      "Total number of rule failures by rule name",
		}, []string{"rule"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "messages_resolved_total",
			Help:      "Total number of resolved error messages by rule and source tier",
		}, []string{"rule", "tier"}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "components_created_total",
			Help:      "Total number of component instances created by scans",
		}),
		scanErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "component_errors_total",
			Help:      "Total number of elements whose component failed to start",
		}),
	}

	registry.MustRegister(
		c.validations,
		c.duration,
		c.failed,
		c.failures,
		c.messages,
		c.created,
		c.scanErrors,
	)
	return c
}

// Registry returns the registry the collector writes to.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveValidation records one full validation run.
func (c *Collector) ObserveValidation(formID string, valid bool, failed int, elapsed time.Duration) {
	if !c.cfg.Enabled {
		return
	}
	if !c.forms.Allow(formID) {
		formID = OtherForm
	}
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	c.validations.WithLabelValues(formID, outcome).Inc()
	c.duration.WithLabelValues(formID).Observe(elapsed.Seconds())
	c.failed.WithLabelValues(formID).Observe(float64(failed))
}

// ObserveFailure records the rule that failed a unit.
func (c *Collector) ObserveFailure(ruleName string) {
	if !c.cfg.Enabled {
		return
	}
	c.failures.WithLabelValues(ruleName).Inc()
}

// ObserveTier records which source tier produced a message. It matches
// message.Observer.
func (c *Collector) ObserveTier(ruleName string, tier message.Tier) {
	if !c.cfg.Enabled {
		return
	}
	c.messages.WithLabelValues(ruleName, strconv.Itoa(int(tier))).Inc()
}

// ObserveScan records the outcome of a component scan.
func (c *Collector) ObserveScan(created, failed int) {
	if !c.cfg.Enabled {
		return
	}
	c.created.Add(float64(created))
	c.scanErrors.Add(float64(failed))
}

// CardinalityLimiter caps the number of distinct label values.
type CardinalityLimiter struct {
	max     int
	mu      sync.RWMutex
	current map[string]struct{}
}

func NewCardinalityLimiter(limit int) *CardinalityLimiter {
	return &CardinalityLimiter{max: limit, current: make(map[string]struct{})}
}

// Allow reports whether value is already tracked or still fits under the cap.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	_, ok := cl.current[value]
	cl.mu.RUnlock()
	if ok {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if _, ok := cl.current[value]; ok {
		return true
	}
	if len(cl.current) >= cl.max {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of tracked values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
