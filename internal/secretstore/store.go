// Package secretstore resolves credential references to credential material.
//
// The extraction workflow only ever carries a reference (credential_guid);
// the material itself is fetched from a Store right before a client is
// loaded and is never written to workflow state.
package secretstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/supacatalog/pkg/core"
)

// ErrNotFound is returned when a reference has no stored credentials.
var ErrNotFound = errors.New("credentials not found")

// Store fetches credential material by reference.
type Store interface {
	GetCredentials(ctx context.Context, ref string) (core.Credentials, error)
}

// Open opens a store of the given kind: "file" (YAML), "sqlite", or "memory".
// The returned store implements io.Closer when it holds resources.
func Open(ctx context.Context, kind, path string) (Store, error) {
	switch strings.ToLower(kind) {
	case "", "file", "yaml":
		if path == "" {
			return nil, fmt.Errorf("secret store path is required for file store")
		}
		return OpenFile(path)
	case "sqlite":
		if path == "" {
			return nil, fmt.Errorf("secret store path is required for sqlite store")
		}
		s := NewSQLiteStore()
		if err := s.Open(ctx, path); err != nil {
			return nil, err
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(nil), nil
	default:
		return nil, fmt.Errorf("unknown secret store type %q (expected file, sqlite, or memory)", kind)
	}
}

// Close closes s if it holds resources.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	creds map[string]core.Credentials
}

// NewMemoryStore creates a store seeded with creds.
func NewMemoryStore(creds map[string]core.Credentials) *MemoryStore {
	if creds == nil {
		creds = make(map[string]core.Credentials)
	}
	return &MemoryStore{creds: creds}
}

// Put stores credentials under ref. Not safe for concurrent use with reads.
func (m *MemoryStore) Put(ref string, creds core.Credentials) {
	m.creds[ref] = creds
}

// GetCredentials implements Store.
func (m *MemoryStore) GetCredentials(ctx context.Context, ref string) (core.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := m.creds[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return copyCredentials(c), nil
}

func copyCredentials(c core.Credentials) core.Credentials {
	out := make(core.Credentials, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
