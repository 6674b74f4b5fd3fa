package transformer

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/supacatalog/pkg/core"
)

// Result is the outcome of transforming one row: either an entity or a typed
// failure (*UnknownTypeError or *MappingError).
//
// Degraded lists descriptive fields that were unusable and fell back to their
// defaults; the entity is still produced.
type Result struct {
	TypeName core.EntityVariant
	Entity   *core.Entity
	Err      error
	Degraded []*core.FieldError
}

// OK reports whether the row produced an entity.
func (r Result) OK() bool {
	return r.Err == nil && r.Entity != nil
}

// UnknownTypeError is returned when no mapper is registered for a tag.
type UnknownTypeError struct {
	TypeName  core.EntityVariant
	Available []core.EntityVariant
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown typename %q (registered: %v)", e.TypeName, e.Available)
}

// MappingError is returned when a mapper fails on a row.
type MappingError struct {
	TypeName core.EntityVariant
	Row      core.Row
	Err      error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("error transforming %s entity: %v", e.TypeName, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// DegradedFieldsError is returned by a mapper together with a usable
// attribute set when some descriptive fields fell back to their defaults.
type DegradedFieldsError struct {
	Fields []*core.FieldError
}

func (e *DegradedFieldsError) Error() string {
	keys := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		keys[i] = f.Key
	}
	return fmt.Sprintf("fields fell back to defaults: %s", strings.Join(keys, ", "))
}

// BatchSummary counts the outcomes of a batch.
type BatchSummary struct {
	Total       int
	Transformed int
	Unknown     int
	Failed      int
	Degraded    int
}

// Dropped returns the number of rows that produced no entity.
func (s BatchSummary) Dropped() int {
	return s.Unknown + s.Failed
}

// Add records one result.
func (s *BatchSummary) Add(r Result) {
	s.Total++
	switch r.Err.(type) {
	case nil:
		s.Transformed++
		if len(r.Degraded) > 0 {
			s.Degraded++
		}
	case *UnknownTypeError:
		s.Unknown++
	default:
		s.Failed++
	}
}
