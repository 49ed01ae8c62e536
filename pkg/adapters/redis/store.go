// Package redis provides a snapshot store backed by Redis, for setups
// where unsaved-work recovery must survive the editor process itself.
package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/nbformat"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.SnapshotStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for snapshots. Zero means no expiration.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for snapshots.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis snapshot store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis snapshot store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "quire:snapshot:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the snapshot and records the id in the listing index.
func (s *Store) Save(ctx context.Context, id string, nb *nbformat.Notebook) error {
	if id == "" {
		return fmt.Errorf("document id cannot be empty")
	}
	data, err := nb.Encode()
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(id), data, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load retrieves the snapshot for a given document id.
func (s *Store) Load(ctx context.Context, id string) (*nbformat.Notebook, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return nbformat.Decode(data)
}

// Delete removes the snapshot and its index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.SRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns the ids of all stored snapshots. Ids whose snapshot expired
// via TTL are pruned from the index lazily.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	live := make([]string, 0, len(ids))
	for _, id := range ids {
		exists, err := s.client.Exists(ctx, s.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check snapshot %q: %w", id, err)
		}
		if exists > 0 {
			live = append(live, id)
		} else {
			s.client.SRem(ctx, s.indexKey(), id)
		}
	}
	sort.Strings(live)
	return live, nil
}
