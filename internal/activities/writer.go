package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/leapstack-labs/supacatalog/pkg/core"
)

// EntityWriter receives transformed entities in chunks.
type EntityWriter interface {
	Write(ctx context.Context, variant core.EntityVariant, entities []*core.Entity) error
}

// MemoryWriter keeps every written entity, grouped by variant.
type MemoryWriter struct {
	mu       sync.Mutex
	entities map[core.EntityVariant][]*core.Entity
	chunks   int
}

// NewMemoryWriter creates an empty MemoryWriter.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{entities: make(map[core.EntityVariant][]*core.Entity)}
}

// Write implements EntityWriter.
func (w *MemoryWriter) Write(ctx context.Context, variant core.EntityVariant, entities []*core.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities[variant] = append(w.entities[variant], entities...)
	w.chunks++
	return nil
}

// Entities returns the entities written for variant.
func (w *MemoryWriter) Entities(variant core.EntityVariant) []*core.Entity {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*core.Entity(nil), w.entities[variant]...)
}

// Chunks returns how many Write calls were accepted.
func (w *MemoryWriter) Chunks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chunks
}

// JSONLinesWriter writes one JSON document per entity.
type JSONLinesWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLinesWriter writes to w.
func NewJSONLinesWriter(w io.Writer) *JSONLinesWriter {
	return &JSONLinesWriter{enc: json.NewEncoder(w)}
}

// Write implements EntityWriter.
func (w *JSONLinesWriter) Write(ctx context.Context, variant core.EntityVariant, entities []*core.Entity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range entities {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.enc.Encode(e); err != nil {
			return fmt.Errorf("failed to write %s entity: %w", variant.Lower(), err)
		}
	}
	return nil
}

// DirWriter writes entities as JSON lines into one file per variant,
// <dir>/<variant>.jsonl. Files are created on first write.
type DirWriter struct {
	dir string

	mu    sync.Mutex
	files map[core.EntityVariant]*os.File
	sinks map[core.EntityVariant]*JSONLinesWriter
}

// NewDirWriter creates dir if needed.
func NewDirWriter(dir string) (*DirWriter, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &DirWriter{
		dir:   dir,
		files: make(map[core.EntityVariant]*os.File),
		sinks: make(map[core.EntityVariant]*JSONLinesWriter),
	}, nil
}

// Path returns the output file for variant.
func (w *DirWriter) Path(variant core.EntityVariant) string {
	return filepath.Join(w.dir, variant.Lower()+".jsonl")
}

// Write implements EntityWriter.
func (w *DirWriter) Write(ctx context.Context, variant core.EntityVariant, entities []*core.Entity) error {
	sink, err := w.sink(variant)
	if err != nil {
		return err
	}
	return sink.Write(ctx, variant, entities)
}

func (w *DirWriter) sink(variant core.EntityVariant) (*JSONLinesWriter, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.sinks[variant]; ok {
		return s, nil
	}
	f, err := os.Create(w.Path(variant))
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	w.files[variant] = f
	w.sinks[variant] = NewJSONLinesWriter(f)
	return w.sinks[variant], nil
}

// Close closes every file opened so far.
func (w *DirWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var first error
	for v, f := range w.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
		delete(w.files, v)
		delete(w.sinks, v)
	}
	return first
}
