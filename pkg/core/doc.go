// Package core defines the shared language of the supacatalog system.
//
// This package contains:
//   - Catalog entities (Entity, EntityVariant, AttributeSet)
//   - Raw source rows and their defaulting accessors (Row)
//   - Extraction provenance (Provenance)
//   - Credential material handed from secret stores to clients (Credentials)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
