package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/formatbench/pkg/errors"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestWithContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	ctx := ContextWithRunID(context.Background(), "run-1")
	ctx = ContextWithTable(ctx, "orders")
	ctx = ContextWithFormat(ctx, "parquet")

	WithContext(ctx).Info("chunk written")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "orders", fields["table"])
	assert.Equal(t, "parquet", fields["format"])
}

func TestErrorFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	inner := errors.Newf(errors.ErrorTypeConversion, errors.CodeInvalidDate, "bad date").
		WithDetail("column", "o_orderdate")
	err := errors.Wrap(inner, errors.ErrorTypeSource, "ingest").WithDetail("row", int64(4))

	l.Error("table failed", ErrorFields(err)...)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "source", fields["error_type"])
	assert.Equal(t, "invalid_date", fields["error_code"])
	assert.Equal(t, "o_orderdate", fields["column"])
	assert.Equal(t, int64(4), fields["row"])
}
