package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	SignUpRequestsTotal    metric.Int64Counter
	LoginAttemptsTotal     metric.Int64Counter
	StoreOpDurationSeconds metric.Float64Histogram
	StoreOpErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("go-user-accounts")
		var err error
		m := &AppMetrics{}

		m.SignUpRequestsTotal, err = meter.Int64Counter(
			"signup_requests_total",
			metric.WithDescription("Total number of sign-up requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create signup_requests_total: %v", err)
		}

		m.LoginAttemptsTotal, err = meter.Int64Counter(
			"login_attempts_total",
			metric.WithDescription("Total number of login attempts processed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create login_attempts_total: %v", err)
		}

		m.StoreOpDurationSeconds, err = meter.Float64Histogram(
			"store_op_duration_seconds",
			metric.WithDescription("Duration of document store operations in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create store_op_duration_seconds: %v", err)
		}

		m.StoreOpErrorsTotal, err = meter.Int64Counter(
			"store_op_errors_total",
			metric.WithDescription("Total number of document store operation errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create store_op_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics.InitAppMetrics must be called before metrics.Get")
	}
	return appMetrics
}
