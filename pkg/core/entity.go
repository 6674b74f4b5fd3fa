package core

import (
	"fmt"
	"strings"
)

// EntityVariant is the type tag of a catalog entity.
type EntityVariant string

// Built-in entity variants.
const (
	VariantDatabase EntityVariant = "DATABASE"
	VariantSchema   EntityVariant = "SCHEMA"
	VariantTable    EntityVariant = "TABLE"
	VariantColumn   EntityVariant = "COLUMN"
)

// StatusActive is the only status the extractor ever emits.
const StatusActive = "ACTIVE"

// Variants returns the built-in variants, ordered from the most general
// (database) to the most specific (column).
func Variants() []EntityVariant {
	return []EntityVariant{VariantDatabase, VariantSchema, VariantTable, VariantColumn}
}

// NormalizeVariant uppercases a type tag. It does not check membership in
// the built-in set, since registries may carry additional variants.
func NormalizeVariant(typename string) EntityVariant {
	return EntityVariant(strings.ToUpper(strings.TrimSpace(typename)))
}

// ParseVariant parses a built-in variant from any casing.
func ParseVariant(typename string) (EntityVariant, error) {
	v := NormalizeVariant(typename)
	for _, known := range Variants() {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown entity variant %q", typename)
}

// String implements fmt.Stringer.
func (v EntityVariant) String() string {
	return string(v)
}

// Lower returns the lowercase tag, used for output suffixes ("raw/column").
func (v EntityVariant) Lower() string {
	return strings.ToLower(string(v))
}

// Attributes is a flat, string-keyed attribute bucket.
type Attributes map[string]any

// AttributeSet is the pair of buckets produced by a mapper.
// Standard attributes belong to the catalog's core schema; custom attributes
// are variant-specific descriptive fields. The two key sets are disjoint.
type AttributeSet struct {
	Attributes       Attributes
	CustomAttributes Attributes
}

// NewAttributeSet returns an AttributeSet with both buckets allocated.
func NewAttributeSet() AttributeSet {
	return AttributeSet{
		Attributes:       Attributes{},
		CustomAttributes: Attributes{},
	}
}

// Merge copies other into s, bucket by bucket. Keys from other win.
func (s *AttributeSet) Merge(other AttributeSet) {
	if s.Attributes == nil {
		s.Attributes = Attributes{}
	}
	if s.CustomAttributes == nil {
		s.CustomAttributes = Attributes{}
	}
	for k, v := range other.Attributes {
		s.Attributes[k] = v
	}
	for k, v := range other.CustomAttributes {
		s.CustomAttributes[k] = v
	}
}

// Overlap returns the keys present in both buckets, if any.
func (s AttributeSet) Overlap() []string {
	var keys []string
	for k := range s.Attributes {
		if _, ok := s.CustomAttributes[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Entity is a transformed, catalog-ready record.
// It is created fresh per raw row and never mutated after it is returned.
type Entity struct {
	TypeName         EntityVariant `json:"typeName"`
	Attributes       Attributes    `json:"attributes"`
	CustomAttributes Attributes    `json:"customAttributes"`
	Status           string        `json:"status"`
}

// QualifiedName returns the entity's qualifiedName attribute, or "".
func (e *Entity) QualifiedName() string {
	if e == nil {
		return ""
	}
	s, _ := e.Attributes["qualifiedName"].(string)
	return s
}

// Provenance identifies the extraction run that produced an entity.
// It is passed per call and only ever merged into an entity's attributes.
type Provenance struct {
	WorkflowID              string
	WorkflowRunID           string
	ConnectionQualifiedName string
	ConnectionName          string
}
