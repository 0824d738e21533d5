// Package snapshot defines saved copies of registry state and the
// repository interface that persists them. It has no storage dependencies.
package snapshot

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one variable as captured: its name, type name, display text of
// the current value, and flags.
type Record struct {
	Name  string
	Type  string
	Value string
	Flags uint32
}

// Snapshot is a labeled set of records. Fields are unexported; use the
// constructor and getters.
type Snapshot struct {
	id        int64
	guid      string
	label     string
	records   []Record
	count     int
	createdAt time.Time
	deletedAt *time.Time
}

// New creates an unsaved snapshot with a fresh GUID.
func New(label string, records []Record) *Snapshot {
	return &Snapshot{
		guid:      uuid.NewString(),
		label:     label,
		records:   records,
		count:     len(records),
		createdAt: time.Now(),
	}
}

// Reconstruct rebuilds a snapshot read back from storage. count is the
// stored record count; records may be nil when only the summary was loaded.
func Reconstruct(id int64, guid, label string, count int, records []Record, createdAt time.Time, deletedAt *time.Time) *Snapshot {
	return &Snapshot{
		id:        id,
		guid:      guid,
		label:     label,
		records:   records,
		count:     count,
		createdAt: createdAt,
		deletedAt: deletedAt,
	}
}

func (s *Snapshot) ID() int64             { return s.id }
func (s *Snapshot) GUID() string          { return s.guid }
func (s *Snapshot) Label() string         { return s.label }
func (s *Snapshot) Records() []Record     { return s.records }
func (s *Snapshot) Len() int              { return s.count }
func (s *Snapshot) CreatedAt() time.Time  { return s.createdAt }
func (s *Snapshot) DeletedAt() *time.Time { return s.deletedAt }

// SetID is called by the repository after insert.
func (s *Snapshot) SetID(id int64) { s.id = id }

// SetRecords replaces the records. Repositories listing snapshots leave
// records unloaded.
func (s *Snapshot) SetRecords(records []Record) {
	s.records = records
	s.count = len(records)
}

// NotFoundError is returned when no live snapshot has the GUID.
type NotFoundError struct {
	GUID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("snapshot not found: %s", e.GUID)
}

// ListFilter provides filtering options for listing snapshots.
type ListFilter struct {
	// Label restricts results to snapshots with exactly this label.
	Label string

	// Limit restricts the number of snapshots returned. 0 means no limit.
	Limit int

	// IncludeDeleted includes soft-deleted snapshots.
	IncludeDeleted bool
}

// Repository persists snapshots.
type Repository interface {
	// Save inserts a new snapshot with its records and sets its ID.
	Save(s *Snapshot) error

	// FindByGUID returns a snapshot with its records.
	// Returns NotFoundError if no live snapshot matches.
	FindByGUID(guid string) (*Snapshot, error)

	// Values returns the records of a live snapshot in capture order.
	// Returns NotFoundError if no live snapshot matches.
	Values(guid string) ([]Record, error)

	// List returns snapshots newest first, without records.
	List(filter ListFilter) ([]*Snapshot, error)

	// Delete soft-deletes a snapshot.
	// Returns NotFoundError if no live snapshot matches.
	Delete(guid string) error

	// Purge permanently removes snapshots soft-deleted at or before cutoff and
	// returns how many were removed.
	Purge(cutoff time.Time) (int64, error)

	// Close releases any resources held by the repository.
	Close() error
}
