package telemetry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/keywordlock/serp-tracker/internal/telemetry"
)

// providerOnce ensures we only create one Provider per test run to avoid
// duplicate Prometheus metric registration errors from promauto's global registry
var (
	testProvider *telemetry.Provider
	providerOnce sync.Once
)

func getTestProvider(t *testing.T) *telemetry.Provider {
	t.Helper()
	providerOnce.Do(func() {
		testProvider = telemetry.NewProvider()
	})
	return testProvider
}

func TestNewProvider(t *testing.T) {
	provider := getTestProvider(t)
	if provider == nil {
		t.Fatal("expected non-nil provider")
	}
	if provider.Tracer == nil {
		t.Error("expected non-nil tracer")
	}
	if provider.Metrics == nil {
		t.Error("expected non-nil metrics")
	}
}

func TestRecordSerpFetch(t *testing.T) {
	provider := getTestProvider(t)
	ctx := context.Background()

	// Should not panic
	provider.RecordSerpFetch(ctx, "ok", 2*time.Second)
	provider.RecordSerpFetch(ctx, "provider_error", 500*time.Millisecond)
	provider.RecordProviderCost(0.002)
}

func TestRecordBatch(t *testing.T) {
	provider := getTestProvider(t)

	// Should not panic
	provider.RecordBatch(25, 90*time.Second)
	provider.RecordKeywordProcessed(true)
	provider.RecordKeywordProcessed(false)
	provider.RecordIngestion(10, 3, 1)
}

func TestGauges(t *testing.T) {
	provider := getTestProvider(t)

	// Should not panic
	provider.SetActiveTasks(4)
	provider.SetSSEClients(2)
}
