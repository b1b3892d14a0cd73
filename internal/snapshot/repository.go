package snapshot

import "context"

// Repository defines the interface for snapshot persistence.
type Repository interface {
	// SaveLatest stores a snapshot as the current one.
	SaveLatest(ctx context.Context, snap *Snapshot) error

	// Latest retrieves the most recent snapshot.
	// Returns ErrNoSnapshot if nothing has been captured yet.
	Latest(ctx context.Context) (*Snapshot, error)
}
