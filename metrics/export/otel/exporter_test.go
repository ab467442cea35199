package otel

import (
	"context"
	"sync"
	"testing"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/session"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goAdmin.MetricsSnapshot
	dropped  uint64
	pending  int
	sess     session.Session
}

func (f *fakeSource) MetricsSnapshot() goAdmin.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goAdmin.MetricsSnapshot{
		Counters:   make(map[goAdmin.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[goAdmin.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func (f *fakeSource) AuditPending() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pending
}

func (f *fakeSource) Session() session.Session {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sess
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goadmin-test")

	src := &fakeSource{
		snapshot: goAdmin.MetricsSnapshot{
			Counters: map[goAdmin.MetricID]uint64{
				goAdmin.MetricLoginSuccess: 3,
			},
			Histograms: map[goAdmin.MetricID][]uint64{
				goAdmin.MetricCheckLoginLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected collected metrics, got none")
	}
}

func TestExporterRejectsNilSource(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goadmin-test")

	if _, err := NewFromSource(meter, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goadmin-test")

	src := &fakeSource{
		snapshot: goAdmin.MetricsSnapshot{
			Counters: map[goAdmin.MetricID]uint64{
				goAdmin.MetricLoginSuccess: 1,
			},
			Histograms: map[goAdmin.MetricID][]uint64{
				goAdmin.MetricCheckLoginLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goAdmin.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}

func findGauge(rm metricdata.ResourceMetrics, name string) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			g, ok := m.Data.(metricdata.Gauge[int64])
			if !ok || len(g.DataPoints) == 0 {
				return 0, false
			}
			return g.DataPoints[0].Value, true
		}
	}
	return 0, false
}

func TestExporterObservesSessionGauge(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goadmin-test")

	src := &fakeSource{
		snapshot: goAdmin.MetricsSnapshot{
			Counters:   map[goAdmin.MetricID]uint64{},
			Histograms: map[goAdmin.MetricID][]uint64{},
		},
		pending: 5,
		sess:    session.Session{Token: "tok", UserInfo: session.Profile{Username: "admin"}},
	}
	exp, err := NewFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewFromSource failed: %v", err)
	}
	defer func() { _ = exp.Close() }()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if v, ok := findGauge(rm, "goadmin_session_active"); !ok || v != 1 {
		t.Fatalf("expected session gauge 1, got %d (found=%v)", v, ok)
	}
	if v, ok := findGauge(rm, "goadmin_audit_pending"); !ok || v != 5 {
		t.Fatalf("expected audit pending 5, got %d (found=%v)", v, ok)
	}
}

func TestNewRejectsNilEngine(t *testing.T) {
	meter := sdkmetric.NewMeterProvider().Meter("goadmin-test")
	if _, err := New(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
}
