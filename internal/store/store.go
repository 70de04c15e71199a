// Package store persists scan snapshots: the reports produced for a domain,
// kept for history listings and offline inspection.
package store

import (
	"context"
	"encoding/json"
	"time"
)

// ScanKind discriminates what a snapshot holds.
type ScanKind string

const (
	ScanCompetitors ScanKind = "competitors"
	ScanKeywords    ScanKind = "keywords"
)

// Scan is one persisted report snapshot.
type Scan struct {
	ID        string          `json:"id"`
	Domain    string          `json:"domain"`
	Kind      ScanKind        `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// ScanFilter specifies criteria for listing scans.
type ScanFilter struct {
	Domain string   `json:"domain,omitempty"`
	Kind   ScanKind `json:"kind,omitempty"`
	Limit  int      `json:"limit,omitempty"`
	Offset int      `json:"offset,omitempty"`
}

// Store defines the persistence interface for scan snapshots.
type Store interface {
	// SaveScan marshals payload and inserts a snapshot row.
	SaveScan(ctx context.Context, domain string, kind ScanKind, payload any) (*Scan, error)
	// GetScan fetches one snapshot by id.
	GetScan(ctx context.Context, id string) (*Scan, error)
	// LatestScan returns the newest snapshot for a domain and kind, or nil
	// when none exists.
	LatestScan(ctx context.Context, domain string, kind ScanKind) (*Scan, error)
	// ListScans returns snapshots newest-first.
	ListScans(ctx context.Context, filter ScanFilter) ([]Scan, error)
	// DeleteScansBefore removes snapshots created before the cutoff and
	// reports how many went.
	DeleteScansBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
