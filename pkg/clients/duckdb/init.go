package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/supacatalog/pkg/client"
)

func init() {
	client.Register("duckdb", func(l *slog.Logger) client.SQLClient { return New(l) })
}
