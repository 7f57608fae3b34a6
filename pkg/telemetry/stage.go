package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Stage выполняет этап конвейера внутри отдельного span.
// Ошибка этапа записывается в span и возвращается без изменений.
func Stage(ctx context.Context, name string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := StartSpan(ctx, name, WithAttributes(attribute.String(AttrStage, name)))
	defer span.End()

	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
