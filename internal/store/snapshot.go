package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const snapshotsTable = "snapshots"

// snapshotRepo implements SnapshotRepo on the snapshots table.
type snapshotRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *snapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	if snap.Sequence == 0 {
		n, err := r.seq.Next(ctx)
		if err != nil {
			return err
		}
		snap.Sequence = n
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}

	query, args := builder().Insert(snapshotsTable).
		Columns("key", "sequence", "timestamp", "data").
		Values(snap.Key, snap.Sequence, snap.Timestamp.UTC().UnixMilli(), string(snap.Data)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		snap.ID = int(id)
	}
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context, key string) (*Snapshot, error) {
	query, args := builder().Select("id", "key", "sequence", "timestamp", "data").
		From(entsql.Table(snapshotsTable)).
		Where(entsql.EQ("key", key)).
		OrderBy(entsql.Desc("sequence")).
		Limit(1).
		Query()

	var (
		s    Snapshot
		ts   int64
		data string
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.Key, &s.Sequence, &ts, &data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	s.Timestamp = time.UnixMilli(ts).UTC()
	s.Data = []byte(data)
	return &s, nil
}

func (r *snapshotRepo) Prune(ctx context.Context, key string, keep int) error {
	// Find the threshold: the sequence of the (keep+1)th most recent snapshot.
	query, args := builder().Select("sequence").
		From(entsql.Table(snapshotsTable)).
		Where(entsql.EQ("key", key)).
		OrderBy(entsql.Desc("sequence")).
		Offset(keep).
		Limit(1).
		Query()

	var threshold int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&threshold)
	if err == sql.ErrNoRows {
		return nil // fewer than keep snapshots exist
	}
	if err != nil {
		return fmt.Errorf("query snapshots for prune: %w", err)
	}

	query, args = builder().Delete(snapshotsTable).
		Where(entsql.And(entsql.EQ("key", key), entsql.LTE("sequence", threshold))).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
