package transformer

import (
	"testing"

	"github.com/leapstack-labs/supacatalog/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtinMappers() map[core.EntityVariant]Mapper {
	return map[core.EntityVariant]Mapper{
		core.VariantDatabase: DatabaseMapper{DatabaseType: "supabase", CloudHosted: true},
		core.VariantSchema:   SchemaMapper,
		core.VariantTable:    TableMapper,
		core.VariantColumn:   ColumnMapper,
	}
}

func TestMappers_EmptyRowYieldsDefaults(t *testing.T) {
	for variant, m := range builtinMappers() {
		t.Run(variant.String(), func(t *testing.T) {
			var attrs core.AttributeSet
			require.NotPanics(t, func() {
				var err error
				attrs, err = m.Attributes(core.Row{})
				require.NoError(t, err)
			})

			assert.Equal(t, "", attrs.Attributes["name"])
			assert.Equal(t, "", attrs.Attributes["qualifiedName"])
			assert.Equal(t, "", attrs.Attributes["connectionQualifiedName"])
			assert.Empty(t, attrs.Overlap(), "standard and custom buckets must be disjoint")
		})
	}
}

func TestMappers_EmptyRowSentinels(t *testing.T) {
	schema, err := SchemaMapper.Attributes(core.Row{})
	require.NoError(t, err)
	assert.Equal(t, "other", schema.CustomAttributes["schemaType"])
	assert.Equal(t, int64(0), schema.Attributes["tableCount"])
	assert.Equal(t, int64(0), schema.Attributes["viewCount"])

	table, err := TableMapper.Attributes(core.Row{})
	require.NoError(t, err)
	assert.Equal(t, "other", table.CustomAttributes["tableCategory"])
	assert.Equal(t, false, table.CustomAttributes["hasRowLevelSecurity"])
	assert.Equal(t, 0, table.CustomAttributes["rowCount"])

	column, err := ColumnMapper.Attributes(core.Row{})
	require.NoError(t, err)
	assert.Equal(t, false, column.Attributes["isNullable"])
	assert.Equal(t, int64(1), column.Attributes["order"])
	assert.Equal(t, "standard_column", column.CustomAttributes["columnCategory"])
	assert.Equal(t, "", column.CustomAttributes["columnDefault"])
}

func TestColumnMapper_IsNullable(t *testing.T) {
	tests := []struct {
		name string
		row  core.Row
		want bool
	}{
		{name: "YES", row: core.Row{"is_nullable": "YES"}, want: true},
		{name: "YES as bytes", row: core.Row{"is_nullable": []byte("YES")}, want: true},
		{name: "NO", row: core.Row{"is_nullable": "NO"}, want: false},
		{name: "empty", row: core.Row{"is_nullable": ""}, want: false},
		{name: "lowercase yes", row: core.Row{"is_nullable": "yes"}, want: false},
		{name: "absent", row: core.Row{}, want: false},
		{name: "nil", row: core.Row{"is_nullable": nil}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, err := ColumnMapper.Attributes(tt.row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, attrs.Attributes["isNullable"])
		})
	}
}

func TestColumnMapper_FullRow(t *testing.T) {
	row := core.Row{
		KeyConnectionQualifiedName: "default/supabase/1700000000",
		"table_catalog":            "postgres",
		"table_schema":             "public",
		"table_name":               "users",
		"column_name":              "email",
		"is_nullable":              "NO",
		"data_type":                "text",
		"ordinal_position":         int64(3),
		"udt_name":                 "text",
		"column_description":       "primary contact",
		"column_category":          "primary_key",
	}

	attrs, err := ColumnMapper.Attributes(row)
	require.NoError(t, err)

	assert.Equal(t, "email", attrs.Attributes["name"])
	assert.Equal(t, "default/supabase/1700000000/postgres/public/users/email", attrs.Attributes["qualifiedName"])
	assert.Equal(t, "users", attrs.Attributes["tableName"])
	assert.Equal(t, "public", attrs.Attributes["schemaName"])
	assert.Equal(t, "postgres", attrs.Attributes["databaseName"])
	assert.Equal(t, "text", attrs.Attributes["dataType"])
	assert.Equal(t, int64(3), attrs.Attributes["order"])
	assert.Equal(t, "text", attrs.CustomAttributes["udtName"])
	assert.Equal(t, "primary contact", attrs.CustomAttributes["columnDescription"])
	assert.Equal(t, "primary_key", attrs.CustomAttributes["columnCategory"])
	assert.Empty(t, attrs.Overlap())
}

func TestTableMapper_FullRow(t *testing.T) {
	row := core.Row{
		KeyConnectionQualifiedName: "conn",
		"table_catalog":            "postgres",
		"table_schema":             "auth",
		"table_name":               "sessions",
		"table_type":               "BASE TABLE",
		"row_count":                int64(42),
		"has_row_level_security":   true,
		"table_category":           "system",
	}

	attrs, err := TableMapper.Attributes(row)
	require.NoError(t, err)

	assert.Equal(t, "conn/postgres/auth/sessions", attrs.Attributes["qualifiedName"])
	assert.Equal(t, "auth", attrs.Attributes["schemaName"])
	assert.Equal(t, "BASE TABLE", attrs.CustomAttributes["tableType"])
	assert.Equal(t, int64(42), attrs.CustomAttributes["rowCount"])
	assert.Equal(t, true, attrs.CustomAttributes["hasRowLevelSecurity"])
	assert.Equal(t, "system", attrs.CustomAttributes["tableCategory"])
}

func TestSchemaMapper_Counts(t *testing.T) {
	row := core.Row{
		"database_name": "postgres",
		"schema_name":   "public",
		"table_count":   float64(12), // JSON-decoded numbers arrive as float64
		"view_count":    "2",
	}

	attrs, err := SchemaMapper.Attributes(row)
	require.NoError(t, err)
	assert.Equal(t, "postgres/public", attrs.Attributes["qualifiedName"])
	assert.Equal(t, int64(12), attrs.Attributes["tableCount"])
	assert.Equal(t, int64(2), attrs.Attributes["viewCount"])
}

func TestDatabaseMapper_Custom(t *testing.T) {
	m := DatabaseMapper{DatabaseType: "postgres", CloudHosted: false}
	attrs, err := m.Attributes(core.Row{KeyConnectionQualifiedName: "conn", "database_name": "analytics"})
	require.NoError(t, err)

	assert.Equal(t, "conn/analytics", attrs.Attributes["qualifiedName"])
	assert.Equal(t, "postgres", attrs.CustomAttributes["databaseType"])
	assert.Equal(t, false, attrs.CustomAttributes["isCloudHosted"])
}

func TestMappers_MalformedRow(t *testing.T) {
	tests := []struct {
		name    string
		mapper  Mapper
		row     core.Row
		wantKey string
	}{
		{
			name:    "database name is a list",
			mapper:  DatabaseMapper{},
			row:     core.Row{"database_name": []any{"a", "b"}},
			wantKey: "database_name",
		},
		{
			name:    "fractional ordinal position",
			mapper:  ColumnMapper,
			row:     core.Row{"ordinal_position": 1.5},
			wantKey: "ordinal_position",
		},
		{
			name:    "ordinal position beyond int64",
			mapper:  ColumnMapper,
			row:     core.Row{"ordinal_position": 1e20},
			wantKey: "ordinal_position",
		},
		{
			name:    "table name is a map",
			mapper:  TableMapper,
			row:     core.Row{"table_name": map[string]any{"a": 1}, "has_row_level_security": "yes"},
			wantKey: "table_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.mapper.Attributes(tt.row)
			require.Error(t, err)

			var fieldErr *core.FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.wantKey, fieldErr.Key)
		})
	}
}

func TestMappers_LenientFieldsFallBack(t *testing.T) {
	tests := []struct {
		name         string
		mapper       Mapper
		row          core.Row
		bucket       string
		attr         string
		want         any
		wantDegraded []string
	}{
		{
			name:         "row level security spelled yes",
			mapper:       TableMapper,
			row:          core.Row{"table_name": "users", "has_row_level_security": "yes"},
			bucket:       "custom",
			attr:         "hasRowLevelSecurity",
			want:         false,
			wantDegraded: []string{"has_row_level_security"},
		},
		{
			name:   "row level security spelled t",
			mapper: TableMapper,
			row:    core.Row{"table_name": "users", "has_row_level_security": "t"},
			bucket: "custom",
			attr:   "hasRowLevelSecurity",
			want:   true,
		},
		{
			name:   "table count as decimal string",
			mapper: SchemaMapper,
			row:    core.Row{"schema_name": "public", "table_count": "12.0"},
			bucket: "standard",
			attr:   "tableCount",
			want:   int64(12),
		},
		{
			name:         "counts not numeric",
			mapper:       SchemaMapper,
			row:          core.Row{"schema_name": "public", "table_count": "many", "view_count": []any{1}},
			bucket:       "standard",
			attr:         "viewCount",
			want:         int64(0),
			wantDegraded: []string{"table_count", "view_count"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, err := tt.mapper.Attributes(tt.row)

			if len(tt.wantDegraded) == 0 {
				require.NoError(t, err)
			} else {
				var degraded *DegradedFieldsError
				require.ErrorAs(t, err, &degraded)
				keys := make([]string, len(degraded.Fields))
				for i, f := range degraded.Fields {
					keys[i] = f.Key
				}
				assert.Equal(t, tt.wantDegraded, keys)
			}

			bucket := attrs.Attributes
			if tt.bucket == "custom" {
				bucket = attrs.CustomAttributes
			}
			assert.Equal(t, tt.want, bucket[tt.attr])
		})
	}
}
