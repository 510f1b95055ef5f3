package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/pathwise/internal/store"
)

const (
	// SnapshotKey is the fixed key the state snapshot lives under.
	SnapshotKey = "pathwise.appstate.v1"

	// snapshotsKept is how many older snapshots survive a prune.
	snapshotsKept = 3
)

// saveSnapshot writes the sanitized state and prunes older copies.
func saveSnapshot(ctx context.Context, repo store.SnapshotRepo, s AppState) error {
	data, err := json.Marshal(Sanitize(s))
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := repo.Save(ctx, &store.Snapshot{Key: SnapshotKey, Data: data}); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := repo.Prune(ctx, SnapshotKey, snapshotsKept); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// LoadSnapshot reads the last saved state decoded over DefaultState, so
// fields missing from older snapshots keep their defaults. It returns
// false when there is no snapshot.
func LoadSnapshot(ctx context.Context, repo store.SnapshotRepo) (AppState, bool, error) {
	snap, err := repo.Latest(ctx, SnapshotKey)
	if err != nil {
		return DefaultState(), false, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return DefaultState(), false, nil
	}

	s := DefaultState()
	if err := json.Unmarshal(snap.Data, &s); err != nil {
		return DefaultState(), false, fmt.Errorf("decode snapshot: %w", err)
	}
	return Sanitize(s), true, nil
}
