package transformer

import (
	"sort"

	"github.com/leapstack-labs/supacatalog/pkg/core"
)

// Registry maps uppercase type tags to mappers.
//
// A Registry is populated before processing starts and treated as read-only
// afterwards; Register is not safe to call concurrently with lookups.
type Registry struct {
	mappers map[core.EntityVariant]Mapper
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{mappers: make(map[core.EntityVariant]Mapper)}
}

// DefaultRegistry returns a registry holding the four built-in variants
// configured for Supabase-hosted Postgres.
func DefaultRegistry() *Registry {
	return NewRegistry().
		Register(string(core.VariantDatabase), DatabaseMapper{DatabaseType: "supabase", CloudHosted: true}).
		Register(string(core.VariantSchema), SchemaMapper).
		Register(string(core.VariantTable), TableMapper).
		Register(string(core.VariantColumn), ColumnMapper)
}

// Register adds or replaces the mapper for typename (any casing).
// It returns the registry so registrations can be chained.
func (r *Registry) Register(typename string, m Mapper) *Registry {
	r.mappers[core.NormalizeVariant(typename)] = m
	return r
}

// Lookup returns the mapper for typename (any casing).
func (r *Registry) Lookup(typename string) (Mapper, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.mappers[core.NormalizeVariant(typename)]
	return m, ok
}

// Tags returns all registered tags (sorted).
func (r *Registry) Tags() []core.EntityVariant {
	if r == nil {
		return nil
	}
	tags := make([]core.EntityVariant, 0, len(r.mappers))
	for tag := range r.mappers {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Len returns the number of registered tags.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.mappers)
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	if r == nil {
		return out
	}
	for tag, m := range r.mappers {
		out.mappers[tag] = m
	}
	return out
}
