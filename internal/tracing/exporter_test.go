package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func readRecords(t *testing.T, path string) []SpanRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []SpanRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec SpanRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		out = append(out, rec)
	}
	require.NoError(t, scanner.Err())
	return out
}

func TestFileExporter_WritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "traces.jsonl")
	exp, err := NewFileExporter(path)
	require.NoError(t, err)

	traceID := trace.TraceID{1}
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	stub := tracetest.SpanStub{
		Name: "dvar.register",
		SpanContext: trace.NewSpanContext(trace.SpanContextConfig{
			TraceID: traceID,
			SpanID:  trace.SpanID{2},
		}),
		Parent: trace.NewSpanContext(trace.SpanContextConfig{
			TraceID: traceID,
			SpanID:  trace.SpanID{3},
		}),
		StartTime:  start,
		EndTime:    start.Add(1500 * time.Microsecond),
		Status:     sdktrace.Status{Code: codes.Error, Description: "boom"},
		Attributes: []attribute.KeyValue{attribute.String(AttrDvarName, "r_gamma")},
		Events:     []sdktrace.Event{{Name: "clamped", Time: start}},
	}
	require.NoError(t, exp.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))
	require.NoError(t, exp.Shutdown(context.Background()))

	records := readRecords(t, path)
	require.Len(t, records, 1)
	rec := records[0]
	require.Equal(t, "dvar.register", rec.Name)
	require.Equal(t, traceID.String(), rec.TraceID)
	require.Equal(t, trace.SpanID{3}.String(), rec.ParentSpanID)
	require.Equal(t, 1.5, rec.DurationMs)
	require.Equal(t, "ERROR", rec.Status)
	require.Equal(t, "boom", rec.StatusMsg)
	require.Equal(t, "r_gamma", rec.Attributes[AttrDvarName])
	require.Len(t, rec.Events, 1)
	require.Equal(t, "clamped", rec.Events[0].Name)
}

func TestFileExporter_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"existing"}`+"\n"), 0o600))

	exp, err := NewFileExporter(path)
	require.NoError(t, err)
	stub := tracetest.SpanStub{Name: "second", StartTime: time.Now(), EndTime: time.Now()}
	require.NoError(t, exp.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))
	require.NoError(t, exp.Shutdown(context.Background()))

	records := readRecords(t, path)
	require.Len(t, records, 2)
	require.Equal(t, "existing", records[0].Name)
	require.Equal(t, "second", records[1].Name)
	require.Equal(t, "UNSET", records[1].Status)
}

func TestFileExporter_ExportAfterShutdown(t *testing.T) {
	exp, err := NewFileExporter(filepath.Join(t.TempDir(), "traces.jsonl"))
	require.NoError(t, err)
	require.NoError(t, exp.Shutdown(context.Background()))
	require.NoError(t, exp.Shutdown(context.Background()), "second shutdown is a no-op")

	stub := tracetest.SpanStub{Name: "late"}
	require.Error(t, exp.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))
}
