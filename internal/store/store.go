// Package store persists conversations, prospects, vetting snapshots, and
// the domain analysis cache behind a driver-agnostic interface.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vetting-cli/internal/model"
)

// ErrNotFound is returned for lookups of entities that must exist.
// Cache misses are not errors and return (nil, nil) instead.
var ErrNotFound = eris.New("store: not found")

// CacheStats summarizes the domain cache for maintenance commands.
type CacheStats struct {
	Total int `json:"total"`
	Stale int `json:"stale"`
}

// Store defines the persistence interface for the vetting pipeline.
type Store interface {
	// Conversations. Turns are append-only and returned in insertion order.
	AppendTurn(ctx context.Context, sessionID string, turn model.ConversationTurn) error
	GetConversation(ctx context.Context, sessionID string) ([]model.ConversationTurn, error)

	// Prospects
	SaveProspect(ctx context.Context, p model.Prospect) error
	GetProspect(ctx context.Context, prospectID string) (*model.Prospect, error)

	// Snapshots are append-only: one insert per vetting run, never updated.
	InsertSnapshot(ctx context.Context, snap model.ValidationSnapshot) error
	LatestSnapshot(ctx context.Context, prospectID string) (*model.ValidationSnapshot, error)
	ListSnapshots(ctx context.Context, prospectID string, limit int) ([]model.ValidationSnapshot, error)

	// Domain cache. Get returns entries regardless of age; freshness is a
	// read-time computation owned by the website analyzer. Upsert is atomic
	// last-write-wins keyed by domain.
	GetDomainEntry(ctx context.Context, domain string) (*model.DomainCacheEntry, error)
	UpsertDomainEntry(ctx context.Context, entry model.DomainCacheEntry) error
	DeleteExpiredDomains(ctx context.Context, ttl time.Duration) (int, error)
	DomainCacheStats(ctx context.Context, ttl time.Duration) (*CacheStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
