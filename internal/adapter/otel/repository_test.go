package otel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/neomorfeo/rentiq/internal/adapter/otel"
	"github.com/neomorfeo/rentiq/internal/domain"
)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

func attr(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

// --- Mock repository ---

type mockRepo struct {
	leases map[string]domain.Lease
}

func newMockRepo() *mockRepo {
	return &mockRepo{leases: map[string]domain.Lease{
		"l-1": {ID: "l-1", PropertyID: "p-1", Status: domain.StatusActive},
	}}
}

func (m *mockRepo) GetLease(_ context.Context, id string) (domain.Lease, error) {
	l, ok := m.leases[id]
	if !ok {
		return domain.Lease{}, domain.ErrLeaseNotFound
	}
	return l, nil
}

func (m *mockRepo) GetLeaseDetail(ctx context.Context, id string) (domain.LeaseDetail, error) {
	l, err := m.GetLease(ctx, id)
	if err != nil {
		return domain.LeaseDetail{}, err
	}
	return domain.LeaseDetail{Lease: l, Property: domain.Property{ID: l.PropertyID}}, nil
}

func (m *mockRepo) ListByOwnerAndStatus(_ context.Context, _ string, status domain.LeaseStatus) ([]domain.Lease, error) {
	var out []domain.Lease
	for _, l := range m.leases {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockRepo) ListDueForActivation(_ context.Context, _ domain.LeaseStatus, _ civil.Date) ([]domain.Lease, error) {
	return nil, nil
}

func (m *mockRepo) Atomic(_ context.Context, fn func(tx domain.LeaseTx) error) error {
	return fn(nil)
}

// --- Tests ---

func TestTracingLeaseRepository_GetLease_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingLeaseRepository(newMockRepo())

	if _, err := repo.GetLease(context.Background(), "l-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "LeaseRepository.GetLease" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "LeaseRepository.GetLease")
	}
	if v, ok := attr(spans[0], "lease.status"); !ok || v.AsString() != "ACTIVE" {
		t.Errorf("lease.status = %v, want ACTIVE", v.AsString())
	}
}

func TestTracingLeaseRepository_GetLease_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingLeaseRepository(newMockRepo())

	_, err := repo.GetLease(context.Background(), "missing")
	if !errors.Is(err, domain.ErrLeaseNotFound) {
		t.Fatalf("expected ErrLeaseNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status.Code)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected an exception event on the span")
	}
}

func TestTracingLeaseRepository_ListByOwnerAndStatus_CountsResults(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingLeaseRepository(newMockRepo())

	leases, err := repo.ListByOwnerAndStatus(context.Background(), "owner-1", domain.StatusActive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leases) != 1 {
		t.Fatalf("expected 1 lease, got %d", len(leases))
	}

	spans := exporter.GetSpans()
	if v, ok := attr(spans[0], "result.count"); !ok || v.AsInt64() != 1 {
		t.Errorf("result.count = %v, want 1", v.AsInt64())
	}
	if v, ok := attr(spans[0], "owner.id"); !ok || v.AsString() != "owner-1" {
		t.Errorf("owner.id = %q, want owner-1", v.AsString())
	}
}

func TestTracingLeaseRepository_ListDueForActivation(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingLeaseRepository(newMockRepo())

	day := civil.Date{Year: 2025, Month: time.July, Day: 1}
	if _, err := repo.ListDueForActivation(context.Background(), domain.StatusPrebooked, day); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if v, ok := attr(spans[0], "lease.start_date"); !ok || v.AsString() != "2025-07-01" {
		t.Errorf("lease.start_date = %q, want 2025-07-01", v.AsString())
	}
}

func TestTracingLeaseRepository_Atomic_RecordsErrorKind(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingLeaseRepository(newMockRepo())

	err := repo.Atomic(context.Background(), func(domain.LeaseTx) error {
		return &domain.LeaseConflictError{PropertyID: "p-1", Status: domain.StatusPrebooked}
	})
	if err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "LeaseRepository.Atomic" {
		t.Fatalf("unexpected spans: %+v", spans)
	}
	if v, ok := attr(spans[0], "error.kind"); !ok || v.AsString() != string(domain.KindConflict) {
		t.Errorf("error.kind = %q, want %q", v.AsString(), domain.KindConflict)
	}
}

func TestTracingLeaseRepository_SpansJoinParent(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingLeaseRepository(newMockRepo())

	ctx, parent := otel.Tracer("test").Start(context.Background(), "parent")
	_, _ = repo.GetLeaseDetail(ctx, "l-1")
	parent.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	child, root := spans[0], spans[1]
	if child.Parent.SpanID() != root.SpanContext.SpanID() {
		t.Error("repository span should be a child of the caller's span")
	}
}
