package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrDvarName     = "dvar.name"
	AttrDvarType     = "dvar.type"
	AttrDvarSource   = "dvar.source"
	AttrDvarCount    = "dvar.count"
	AttrFilePath     = "file.path"
	AttrSnapshotGUID = "snapshot.guid"
	AttrSnapshotName = "snapshot.label"
	AttrErrorMessage = "error.message"
)

// Span names used by the service layer.
const (
	SpanBootstrap       = "service.bootstrap"
	SpanLoadArchive     = "service.load_archive"
	SpanLoadHCL         = "service.load_hcl"
	SpanPersist         = "service.persist"
	SpanSnapshotSave    = "service.snapshot.save"
	SpanSnapshotRestore = "service.snapshot.restore"
	SpanSnapshotDiff    = "service.snapshot.diff"
)

// Start begins a span on tracer. A nil tracer yields the context unchanged
// and a span that does nothing.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
