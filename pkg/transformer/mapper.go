package transformer

import (
	"errors"

	"github.com/leapstack-labs/supacatalog/pkg/core"
)

// Mapper builds the attribute buckets for one entity variant.
// Implementations must not mutate the row. Returning a *DegradedFieldsError
// together with a set keeps the row; any other error drops it.
type Mapper interface {
	Attributes(row core.Row) (core.AttributeSet, error)
}

// MapperFunc adapts a function to the Mapper interface.
type MapperFunc func(row core.Row) (core.AttributeSet, error)

// Attributes calls f(row).
func (f MapperFunc) Attributes(row core.Row) (core.AttributeSet, error) {
	return f(row)
}

// fieldReader reads row fields with defaults and keeps the first type error,
// so mappers can read every field and check once. Lenient reads fall back to
// the default instead and are reported through degraded.
type fieldReader struct {
	row      core.Row
	err      error
	degraded []*core.FieldError
}

func (f *fieldReader) str(key, def string) string {
	s, err := f.row.String(key, def)
	f.keep(err)
	return s
}

func (f *fieldReader) int(key string, def int64) int64 {
	n, err := f.row.Int(key, def)
	f.keep(err)
	return n
}

func (f *fieldReader) bool(key string, def bool) bool {
	b, err := f.row.Bool(key, def)
	f.keep(err)
	return b
}

func (f *fieldReader) raw(key string, def any) any {
	return f.row.Value(key, def)
}

func (f *fieldReader) keep(err error) {
	if err != nil && f.err == nil {
		f.err = err
	}
}

// lenientInt is int for descriptive fields: an unusable value yields def.
func (f *fieldReader) lenientInt(key string, def int64) int64 {
	n, err := f.row.Int(key, def)
	if err != nil {
		f.degrade(err)
		return def
	}
	return n
}

// lenientBool is bool for descriptive fields: an unusable value yields def.
func (f *fieldReader) lenientBool(key string, def bool) bool {
	b, err := f.row.Bool(key, def)
	if err != nil {
		f.degrade(err)
		return def
	}
	return b
}

func (f *fieldReader) degrade(err error) {
	var fe *core.FieldError
	if errors.As(err, &fe) {
		f.degraded = append(f.degraded, fe)
		return
	}
	f.keep(err)
}

// result returns set with the reader's outcome: the first hard error, or a
// *DegradedFieldsError when only lenient fields fell back.
func (f *fieldReader) result(set core.AttributeSet) (core.AttributeSet, error) {
	if f.err != nil {
		return core.AttributeSet{}, f.err
	}
	if len(f.degraded) > 0 {
		return set, &DegradedFieldsError{Fields: f.degraded}
	}
	return set, nil
}
