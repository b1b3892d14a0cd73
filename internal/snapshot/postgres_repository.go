package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Every snapshot is appended to itinerary_snapshots, so the table doubles
// as a change history; Latest reads the newest row.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL snapshot repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// SaveLatest appends a snapshot row.
func (r *PostgresRepository) SaveLatest(ctx context.Context, snap *Snapshot) error {
	normalized, err := json.Marshal(snap.Itineraries)
	if err != nil {
		return fmt.Errorf("marshal itineraries: %w", err)
	}

	query := `
		INSERT INTO itinerary_snapshots (id, raw_payload, normalized, fingerprint, fetched_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = r.pool.Exec(ctx, query,
		snap.ID,
		[]byte(snap.Raw),
		normalized,
		snap.Fingerprint,
		snap.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	return nil
}

// Latest retrieves the most recent snapshot.
func (r *PostgresRepository) Latest(ctx context.Context) (*Snapshot, error) {
	query := `
		SELECT id, raw_payload, normalized, fingerprint, fetched_at
		FROM itinerary_snapshots
		ORDER BY fetched_at DESC
		LIMIT 1
	`

	var (
		snap       Snapshot
		raw        []byte
		normalized []byte
	)

	err := r.pool.QueryRow(ctx, query).Scan(
		&snap.ID,
		&raw,
		&normalized,
		&snap.Fingerprint,
		&snap.FetchedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}

	snap.Raw = json.RawMessage(raw)

	if err := json.Unmarshal(normalized, &snap.Itineraries); err != nil {
		return nil, fmt.Errorf("unmarshal itineraries: %w", err)
	}

	return &snap, nil
}
