package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/rentiq/internal/domain"
)

// TracingNotifier wraps a domain.Notifier with OpenTelemetry tracing.
type TracingNotifier struct {
	next   domain.Notifier
	tracer trace.Tracer
}

// Compile-time check: TracingNotifier implements domain.Notifier.
var _ domain.Notifier = (*TracingNotifier)(nil)

// NewTracingNotifier creates a tracing decorator around the given notifier.
func NewTracingNotifier(next domain.Notifier) *TracingNotifier {
	return &TracingNotifier{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (n *TracingNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	ctx, span := n.tracer.Start(ctx, "Notifier.Notify",
		trace.WithAttributes(
			attribute.String("notification.id", notification.ID),
			attribute.String("notification.type", string(notification.Type)),
			attribute.String("notification.recipient_id", notification.RecipientID),
		),
	)
	defer span.End()

	err := n.next.Notify(ctx, notification)
	if err != nil {
		recordError(span, err)
	}
	return err
}

// TracingRenderer wraps a domain.ContractRenderer with OpenTelemetry tracing.
type TracingRenderer struct {
	next   domain.ContractRenderer
	tracer trace.Tracer
}

// Compile-time check: TracingRenderer implements domain.ContractRenderer.
var _ domain.ContractRenderer = (*TracingRenderer)(nil)

// NewTracingRenderer creates a tracing decorator around the given renderer.
func NewTracingRenderer(next domain.ContractRenderer) *TracingRenderer {
	return &TracingRenderer{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRenderer) Render(ctx context.Context, detail domain.LeaseDetail) (domain.Document, error) {
	ctx, span := r.tracer.Start(ctx, "ContractRenderer.Render",
		trace.WithAttributes(attribute.String("lease.id", detail.Lease.ID)),
	)
	defer span.End()

	doc, err := r.next.Render(ctx, detail)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(
			attribute.String("document.filename", doc.Filename),
			attribute.Int("document.bytes", len(doc.Data)),
		)
	}
	return doc, err
}
