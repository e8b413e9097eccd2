package index

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ssargent/wpilogviewer/pkg/wpilog"
)

const instrumentationName = "github.com/ssargent/wpilogviewer/pkg/index"

// LoadOptions configures Load.
type LoadOptions struct {
	Options
	BufferSize     int
	TracerProvider trace.TracerProvider // nil uses the global provider
}

// Load decodes a whole log from r into a new Index. The decoding pass is
// recorded as a single span.
func Load(ctx context.Context, r io.Reader, opts LoadOptions) (*Index, wpilog.Summary, error) {
	tracer := otel.Tracer(instrumentationName)
	if opts.TracerProvider != nil {
		tracer = opts.TracerProvider.Tracer(instrumentationName)
	}

	ctx, span := tracer.Start(ctx, "wpilog.load")
	defer span.End()

	idx := New(opts.Options)
	sum, err := wpilog.Process(ctx, r, idx, wpilog.LogReaderConfig{
		UTF8Policy: opts.UTF8Policy,
		BufferSize: opts.BufferSize,
		Logger:     idx.logger,
	})

	span.SetAttributes(
		attribute.String("wpilog.version", sum.Header.Version()),
		attribute.Int64("wpilog.bytes", sum.Bytes),
		attribute.Int64("wpilog.records", int64(sum.Records())),
		attribute.Int("wpilog.incarnations", idx.Len()),
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return nil, sum, err
	}
	span.SetStatus(codes.Ok, "")

	idx.logger.Info("loaded log", "incarnations", idx.Len(), "values", idx.ValueCount(), "bytes", sum.Bytes)
	return idx, sum, nil
}
