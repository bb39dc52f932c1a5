package otel

import (
	"context"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/rentiq/internal/domain"
)

const tracerName = "github.com/neomorfeo/rentiq/internal/adapter/otel"

// TracingLeaseRepository wraps a domain.LeaseRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingLeaseRepository struct {
	next   domain.LeaseRepository
	tracer trace.Tracer
}

// Compile-time check: TracingLeaseRepository implements domain.LeaseRepository.
var _ domain.LeaseRepository = (*TracingLeaseRepository)(nil)

// NewTracingLeaseRepository creates a tracing decorator around the given repository.
func NewTracingLeaseRepository(next domain.LeaseRepository) *TracingLeaseRepository {
	return &TracingLeaseRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingLeaseRepository) GetLease(ctx context.Context, id string) (domain.Lease, error) {
	ctx, span := r.tracer.Start(ctx, "LeaseRepository.GetLease",
		trace.WithAttributes(attribute.String("lease.id", id)),
	)
	defer span.End()

	lease, err := r.next.GetLease(ctx, id)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.String("lease.status", string(lease.Status)))
	}
	return lease, err
}

func (r *TracingLeaseRepository) GetLeaseDetail(ctx context.Context, id string) (domain.LeaseDetail, error) {
	ctx, span := r.tracer.Start(ctx, "LeaseRepository.GetLeaseDetail",
		trace.WithAttributes(attribute.String("lease.id", id)),
	)
	defer span.End()

	detail, err := r.next.GetLeaseDetail(ctx, id)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.String("property.id", detail.Property.ID))
	}
	return detail, err
}

func (r *TracingLeaseRepository) ListByOwnerAndStatus(ctx context.Context, ownerID string, status domain.LeaseStatus) ([]domain.Lease, error) {
	ctx, span := r.tracer.Start(ctx, "LeaseRepository.ListByOwnerAndStatus",
		trace.WithAttributes(
			attribute.String("owner.id", ownerID),
			attribute.String("lease.status", string(status)),
		),
	)
	defer span.End()

	leases, err := r.next.ListByOwnerAndStatus(ctx, ownerID, status)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(leases)))
	}
	return leases, err
}

func (r *TracingLeaseRepository) ListDueForActivation(ctx context.Context, status domain.LeaseStatus, day civil.Date) ([]domain.Lease, error) {
	ctx, span := r.tracer.Start(ctx, "LeaseRepository.ListDueForActivation",
		trace.WithAttributes(
			attribute.String("lease.status", string(status)),
			attribute.String("lease.start_date", day.String()),
		),
	)
	defer span.End()

	leases, err := r.next.ListDueForActivation(ctx, status, day)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(leases)))
	}
	return leases, err
}

// Atomic traces the whole unit of work. Statements inside it are traced by
// the instrumented database driver.
func (r *TracingLeaseRepository) Atomic(ctx context.Context, fn func(tx domain.LeaseTx) error) error {
	ctx, span := r.tracer.Start(ctx, "LeaseRepository.Atomic")
	defer span.End()

	err := r.next.Atomic(ctx, fn)
	if err != nil {
		recordError(span, err)
		span.SetAttributes(attribute.String("error.kind", string(domain.KindOf(err))))
	}
	return err
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
