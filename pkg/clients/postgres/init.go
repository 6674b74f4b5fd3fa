// Package postgres provides PostgreSQL and Supabase source clients.
//
// This file registers both flavours with the client registry.
// Import this package with a blank identifier to register them:
//
//	import _ "github.com/leapstack-labs/supacatalog/pkg/clients/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/supacatalog/pkg/client"
)

func init() {
	client.Register("postgres", func(l *slog.Logger) client.SQLClient { return New(l) })
	client.Register("supabase", func(l *slog.Logger) client.SQLClient { return NewSupabase(l) })
}
