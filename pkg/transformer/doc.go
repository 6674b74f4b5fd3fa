// Package transformer converts raw metadata rows into catalog entities.
//
// A Transformer owns a Registry mapping an uppercase type tag (DATABASE,
// SCHEMA, TABLE, COLUMN, or any tag a dialect registers) to a Mapper. For each
// row it looks up the mapper, builds the standard and custom attribute
// buckets, merges extraction provenance into both, and returns a Result.
//
// Row failures never escape as panics or abort a batch: an unknown tag yields
// an UnknownTypeError result and a failing mapper yields a MappingError
// result. Callers decide whether dropped rows matter.
//
// Basic usage:
//
//	t := transformer.New(transformer.Config{ConnectorName: "supabase", TenantID: "default"})
//	res := t.Transform("table", row, core.Provenance{WorkflowID: wfID, WorkflowRunID: runID})
//	if res.OK() {
//		emit(res.Entity)
//	}
package transformer
