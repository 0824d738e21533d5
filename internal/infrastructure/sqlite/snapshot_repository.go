package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/dvars/internal/snapshot"
)

const snapshotColumns = `id, guid, label, record_count, created_at, deleted_at`

// snapshotRepository implements snapshot.Repository using SQLite.
type snapshotRepository struct {
	db *sql.DB
}

func newSnapshotRepository(db *sql.DB) *snapshotRepository {
	return &snapshotRepository{db: db}
}

var _ snapshot.Repository = (*snapshotRepository)(nil)

func scanSnapshot(scanner interface{ Scan(...any) error }) (*SnapshotModel, error) {
	var model SnapshotModel
	err := scanner.Scan(
		&model.ID, &model.GUID, &model.Label, &model.RecordCount,
		&model.CreatedAt, &model.DeletedAt,
	)
	return &model, err
}

// Save inserts the snapshot row and its values in one transaction and sets
// the snapshot ID.
func (r *snapshotRepository) Save(s *snapshot.Snapshot) error {
	if s.ID() != 0 {
		return fmt.Errorf("snapshot %s is already saved", s.GUID())
	}
	model := toSnapshotModel(s)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(
		`INSERT INTO snapshots (guid, label, record_count, created_at, deleted_at) VALUES (?, ?, ?, ?, ?)`,
		model.GUID, model.Label, model.RecordCount, model.CreatedAt, model.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO snapshot_values (snapshot_id, position, name, type, value, flags) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare value insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, v := range toValueModels(s) {
		if _, err := stmt.Exec(id, v.Position, v.Name, v.Type, v.Value, v.Flags); err != nil {
			return fmt.Errorf("failed to insert value %s: %w", v.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	s.SetID(id)
	return nil
}

// FindByGUID returns a live snapshot with its values in capture order.
func (r *snapshotRepository) FindByGUID(guid string) (*snapshot.Snapshot, error) {
	row := r.db.QueryRow(
		`SELECT `+snapshotColumns+` FROM snapshots WHERE guid = ? AND deleted_at IS NULL`,
		guid,
	)
	model, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &snapshot.NotFoundError{GUID: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find snapshot by guid: %w", err)
	}

	records, err := r.values(model.ID)
	if err != nil {
		return nil, err
	}
	return model.toDomain(records), nil
}

// Values returns the records of a live snapshot without its summary.
func (r *snapshotRepository) Values(guid string) ([]snapshot.Record, error) {
	var id int64
	err := r.db.QueryRow(
		`SELECT id FROM snapshots WHERE guid = ? AND deleted_at IS NULL`, guid,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &snapshot.NotFoundError{GUID: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find snapshot by guid: %w", err)
	}
	return r.values(id)
}

func (r *snapshotRepository) values(id int64) ([]snapshot.Record, error) {
	rows, err := r.db.Query(
		`SELECT snapshot_id, position, name, type, value, flags FROM snapshot_values
		 WHERE snapshot_id = ? ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot values: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []snapshot.Record
	for rows.Next() {
		var v ValueModel
		if err := rows.Scan(&v.SnapshotID, &v.Position, &v.Name, &v.Type, &v.Value, &v.Flags); err != nil {
			return nil, fmt.Errorf("failed to scan value row: %w", err)
		}
		records = append(records, v.toRecord())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating value rows: %w", err)
	}
	return records, nil
}

// List returns snapshot summaries newest first. Records are not loaded.
func (r *snapshotRepository) List(filter snapshot.ListFilter) ([]*snapshot.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE 1 = 1`
	var args []any

	if filter.Label != "" {
		query += ` AND label = ?`
		args = append(args, filter.Label)
	}
	if !filter.IncludeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*snapshot.Snapshot
	for rows.Next() {
		model, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		out = append(out, model.toDomain(nil))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return out, nil
}

// Delete soft-deletes a snapshot. Its values are kept until the row is
// purged.
func (r *snapshotRepository) Delete(guid string) error {
	result, err := r.db.Exec(
		`UPDATE snapshots SET deleted_at = ? WHERE guid = ? AND deleted_at IS NULL`,
		time.Now().Unix(), guid,
	)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return &snapshot.NotFoundError{GUID: guid}
	}
	return nil
}

// Purge hard-deletes snapshots soft-deleted at or before cutoff. Values go
// with them through the foreign key cascade.
func (r *snapshotRepository) Purge(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM snapshots WHERE deleted_at IS NOT NULL AND deleted_at <= ?`,
		cutoff.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge snapshots: %w", err)
	}
	return result.RowsAffected()
}

// Close is a no-op; the connection is owned by DB.
func (r *snapshotRepository) Close() error {
	return nil
}
