package sqlite

import (
	"time"

	"github.com/zjrosen/dvars/internal/snapshot"
)

// SnapshotModel is a row of the snapshots table. Times are Unix seconds.
type SnapshotModel struct {
	ID          int64
	GUID        string
	Label       *string // nullable
	RecordCount int
	CreatedAt   int64
	DeletedAt   *int64 // nullable
}

// ValueModel is a row of the snapshot_values table.
type ValueModel struct {
	SnapshotID int64
	Position   int
	Name       string
	Type       string
	Value      string
	Flags      int64
}

func toSnapshotModel(s *snapshot.Snapshot) *SnapshotModel {
	m := &SnapshotModel{
		ID:          s.ID(),
		GUID:        s.GUID(),
		RecordCount: s.Len(),
		CreatedAt:   s.CreatedAt().Unix(),
	}
	if s.Label() != "" {
		label := s.Label()
		m.Label = &label
	}
	if s.DeletedAt() != nil {
		deletedAt := s.DeletedAt().Unix()
		m.DeletedAt = &deletedAt
	}
	return m
}

func toValueModels(s *snapshot.Snapshot) []ValueModel {
	out := make([]ValueModel, len(s.Records()))
	for i, rec := range s.Records() {
		out[i] = ValueModel{
			SnapshotID: s.ID(),
			Position:   i,
			Name:       rec.Name,
			Type:       rec.Type,
			Value:      rec.Value,
			Flags:      int64(rec.Flags),
		}
	}
	return out
}

func (m *ValueModel) toRecord() snapshot.Record {
	return snapshot.Record{
		Name:  m.Name,
		Type:  m.Type,
		Value: m.Value,
		Flags: uint32(m.Flags),
	}
}

func (m *SnapshotModel) toDomain(records []snapshot.Record) *snapshot.Snapshot {
	var label string
	if m.Label != nil {
		label = *m.Label
	}
	var deletedAt *time.Time
	if m.DeletedAt != nil {
		t := time.Unix(*m.DeletedAt, 0)
		deletedAt = &t
	}
	return snapshot.Reconstruct(m.ID, m.GUID, label, m.RecordCount, records, time.Unix(m.CreatedAt, 0), deletedAt)
}
