package repository // repository holds data access logic for seat maps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MapSource returns the raw document blob of a seat map.
type MapSource interface {
	FetchMap(ctx context.Context, mapID string) ([]byte, error)
}

// MapRepo reads seat-map documents stored as BLOBs in the seat_maps
// table:
//
//	CREATE TABLE seat_maps (
//	  id         VARCHAR(64) PRIMARY KEY,
//	  document   LONGBLOB NOT NULL,
//	  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
//	);
type MapRepo struct {
	db *sql.DB
}

// NewMapRepo constructs a MapRepo with the given DB handle.
func NewMapRepo(db *sql.DB) *MapRepo {
	return &MapRepo{db: db}
}

// FetchMap returns the document of mapID, or ErrMapNotFound.
func (r *MapRepo) FetchMap(ctx context.Context, mapID string) ([]byte, error) {
	const q = `SELECT document FROM seat_maps WHERE id = ?`
	var doc []byte
	if err := r.db.QueryRowContext(ctx, q, mapID).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMapNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return doc, nil
}

// Save inserts or replaces the document of mapID.
func (r *MapRepo) Save(ctx context.Context, mapID string, doc []byte) error {
	const q = `INSERT INTO seat_maps (id, document) VALUES (?, ?)
	           ON DUPLICATE KEY UPDATE document = VALUES(document)`
	_, err := r.db.ExecContext(ctx, q, mapID, doc)
	return err
}

// Chain asks each source in turn, moving on only when a source reports
// ErrMapNotFound.  Any other error stops the lookup.
type Chain []MapSource

// FetchMap implements MapSource.
func (c Chain) FetchMap(ctx context.Context, mapID string) ([]byte, error) {
	for _, src := range c {
		doc, err := src.FetchMap(ctx, mapID)
		if errors.Is(err, ErrMapNotFound) {
			continue
		}
		return doc, err
	}
	return nil, ErrMapNotFound
}
