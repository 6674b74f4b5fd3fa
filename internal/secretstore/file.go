package secretstore

import (
	"context"
	"fmt"
	"os"

	"github.com/leapstack-labs/supacatalog/pkg/core"
	"gopkg.in/yaml.v3"
)

// FileStore serves credentials from a YAML document of the form
//
//	credentials:
//	  <ref>:
//	    host: db.example.supabase.co
//	    password: ${SUPABASE_DB_PASSWORD}
//
// String values are expanded against the environment on read.
type FileStore struct {
	path  string
	creds map[string]core.Credentials
}

type fileDocument struct {
	Credentials map[string]map[string]any `yaml:"credentials"`
}

// OpenFile reads and parses the YAML file at path.
func OpenFile(path string) (*FileStore, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read secret file: %w", err)
	}
	return ParseFile(path, data)
}

// ParseFile parses YAML secret data; path is used for error messages only.
func ParseFile(path string, data []byte) (*FileStore, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse secret file %s: %w", path, err)
	}

	creds := make(map[string]core.Credentials, len(doc.Credentials))
	for ref, values := range doc.Credentials {
		creds[ref] = core.Credentials(values)
	}
	return &FileStore{path: path, creds: creds}, nil
}

// GetCredentials implements Store.
func (f *FileStore) GetCredentials(ctx context.Context, ref string) (core.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := f.creds[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, ref, f.path)
	}

	out := make(core.Credentials, len(c))
	for k, v := range c {
		if s, ok := v.(string); ok {
			v = os.ExpandEnv(s)
		}
		out[k] = v
	}
	return out, nil
}

// Refs returns the number of stored references.
func (f *FileStore) Refs() int {
	return len(f.creds)
}
