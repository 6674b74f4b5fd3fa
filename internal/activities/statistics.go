package activities

import (
	"github.com/leapstack-labs/supacatalog/pkg/core"
	"github.com/leapstack-labs/supacatalog/pkg/transformer"
)

// Statistics summarizes one fetch activity.
type Statistics struct {
	TypeName         string `json:"typename"`
	RowCount         int    `json:"row_count"`
	TotalRecordCount int    `json:"total_record_count"`
	UnknownCount     int    `json:"unknown_count"`
	FailedCount      int    `json:"failed_count"`
	DegradedCount    int    `json:"degraded_count"`
	ChunkCount       int    `json:"chunk_count"`
}

func newStatistics(variant core.EntityVariant, s transformer.BatchSummary, chunks int) *Statistics {
	return &Statistics{
		TypeName:         variant.Lower(),
		RowCount:         s.Total,
		TotalRecordCount: s.Transformed,
		UnknownCount:     s.Unknown,
		FailedCount:      s.Failed,
		DegradedCount:    s.Degraded,
		ChunkCount:       chunks,
	}
}

// Dropped returns the number of rows that produced no entity.
func (s *Statistics) Dropped() int {
	return s.UnknownCount + s.FailedCount
}
