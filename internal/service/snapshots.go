package service

import (
	"context"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/dvars/internal/dvar"
	"github.com/zjrosen/dvars/internal/log"
	"github.com/zjrosen/dvars/internal/snapshot"
	"github.com/zjrosen/dvars/internal/tracing"
)

// Snapshot captures the registry and saves it under label.
func (s *Service) Snapshot(ctx context.Context, label string) (snap *snapshot.Snapshot, err error) {
	_, span := tracing.Start(ctx, s.tracer, tracing.SpanSnapshotSave, attribute.String(tracing.AttrSnapshotName, label))
	defer func() { tracing.End(span, err) }()

	snap = snapshot.New(label, snapshot.Capture(s.reg))
	if err := s.store.Save(snap); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String(tracing.AttrSnapshotGUID, snap.GUID()),
		attribute.Int(tracing.AttrDvarCount, snap.Len()),
	)
	log.Info(log.CatDB, "Saved snapshot", "guid", snap.GUID(), "label", label, "count", snap.Len())
	return snap, nil
}

// Snapshots lists saved snapshots newest first.
func (s *Service) Snapshots(filter snapshot.ListFilter) ([]*snapshot.Snapshot, error) {
	return s.store.List(filter)
}

// Restore applies a snapshot on behalf of source and returns the number of
// records applied.
func (s *Service) Restore(ctx context.Context, guid string, source dvar.Source) (n int, err error) {
	_, span := tracing.Start(ctx, s.tracer, tracing.SpanSnapshotRestore,
		attribute.String(tracing.AttrSnapshotGUID, guid),
		attribute.String(tracing.AttrDvarSource, source.String()),
	)
	defer func() { tracing.End(span, err) }()

	records, err := s.store.Values(guid)
	if err != nil {
		return 0, err
	}
	n = snapshot.Restore(s.reg, records, source)
	span.SetAttributes(attribute.Int(tracing.AttrDvarCount, n))
	log.Info(log.CatDB, "Restored snapshot", "guid", guid, "count", n, "source", source)
	return n, nil
}

// Diff returns a line diff from the snapshot's dump to the live registry's
// dump. Unchanged lines start with two spaces, removed lines with "- " and
// added lines with "+ ". An empty string means no differences.
func (s *Service) Diff(ctx context.Context, guid string) (out string, err error) {
	_, span := tracing.Start(ctx, s.tracer, tracing.SpanSnapshotDiff, attribute.String(tracing.AttrSnapshotGUID, guid))
	defer func() { tracing.End(span, err) }()

	records, err := s.store.Values(guid)
	if err != nil {
		return "", err
	}
	return LineDiff(snapshot.Dump(records), snapshot.Dump(snapshot.Capture(s.reg))), nil
}

// DeleteSnapshot soft-deletes a snapshot.
func (s *Service) DeleteSnapshot(guid string) error {
	return s.store.Delete(guid)
}

// PurgeSnapshots permanently removes snapshots deleted at least age ago.
func (s *Service) PurgeSnapshots(age time.Duration) (int64, error) {
	return s.store.Purge(time.Now().Add(-age))
}

// LineDiff diffs two newline-terminated texts line by line. It returns ""
// when they are equal.
func LineDiff(before, after string) string {
	if before == after {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				out.WriteString("\n")
			}
		}
	}
	return out.String()
}
