package transformer

import "github.com/leapstack-labs/supacatalog/pkg/core"

// Row keys injected by the Transformer before mapping.
const (
	KeyConnectionQualifiedName = "connection_qualified_name"
	KeyConnectionName          = "connection_name"
)

// Sentinels for open-ended source vocabularies. They mark a value as
// unclassified, which is distinct from a known empty value.
const (
	DefaultSchemaType     = "other"
	DefaultTableCategory  = "other"
	DefaultColumnCategory = "standard_column"
)

// DatabaseMapper maps database rows. DatabaseType and CloudHosted are emitted
// as custom attributes so one implementation serves every Postgres flavour.
type DatabaseMapper struct {
	DatabaseType string
	CloudHosted  bool
}

// Attributes implements Mapper.
func (m DatabaseMapper) Attributes(row core.Row) (core.AttributeSet, error) {
	f := fieldReader{row: row}
	conn := f.str(KeyConnectionQualifiedName, "")
	name := f.str("database_name", "")
	if f.err != nil {
		return core.AttributeSet{}, f.err
	}

	return core.AttributeSet{
		Attributes: core.Attributes{
			"name":                    name,
			"qualifiedName":           BuildQualifiedName(conn, name),
			"connectionQualifiedName": conn,
		},
		CustomAttributes: core.Attributes{
			"databaseType":  m.DatabaseType,
			"isCloudHosted": m.CloudHosted,
		},
	}, nil
}

// SchemaMapper maps schema rows.
var SchemaMapper = MapperFunc(mapSchema)

func mapSchema(row core.Row) (core.AttributeSet, error) {
	f := fieldReader{row: row}
	conn := f.str(KeyConnectionQualifiedName, "")
	database := f.str("database_name", "")
	name := f.str("schema_name", "")
	tableCount := f.lenientInt("table_count", 0)
	viewCount := f.lenientInt("view_count", 0)
	if f.err != nil {
		return core.AttributeSet{}, f.err
	}

	return f.result(core.AttributeSet{
		Attributes: core.Attributes{
			"name":                    name,
			"qualifiedName":           BuildQualifiedName(conn, database, name),
			"connectionQualifiedName": conn,
			"databaseName":            database,
			"tableCount":              tableCount,
			"viewCount":               viewCount,
		},
		CustomAttributes: core.Attributes{
			"schemaOwner":       f.raw("schema_owner", ""),
			"schemaDescription": f.raw("schema_description", ""),
			"schemaType":        f.raw("schema_type", DefaultSchemaType),
		},
	})
}

// TableMapper maps table rows.
var TableMapper = MapperFunc(mapTable)

func mapTable(row core.Row) (core.AttributeSet, error) {
	f := fieldReader{row: row}
	conn := f.str(KeyConnectionQualifiedName, "")
	database := f.str("table_catalog", "")
	schema := f.str("table_schema", "")
	name := f.str("table_name", "")
	rls := f.lenientBool("has_row_level_security", false)
	if f.err != nil {
		return core.AttributeSet{}, f.err
	}

	return f.result(core.AttributeSet{
		Attributes: core.Attributes{
			"name":                    name,
			"schemaName":              schema,
			"databaseName":            database,
			"qualifiedName":           BuildQualifiedName(conn, database, schema, name),
			"connectionQualifiedName": conn,
		},
		CustomAttributes: core.Attributes{
			"tableType":           f.raw("table_type", ""),
			"tableSize":           f.raw("table_size", ""),
			"rowCount":            f.raw("row_count", 0),
			"deadRowCount":        f.raw("dead_row_count", 0),
			"lastAnalyze":         f.raw("last_analyze", ""),
			"lastAutoanalyze":     f.raw("last_autoanalyze", ""),
			"lastVacuum":          f.raw("last_vacuum", ""),
			"lastAutovacuum":      f.raw("last_autovacuum", ""),
			"hasRowLevelSecurity": rls,
			"tableCategory":       f.raw("table_category", DefaultTableCategory),
		},
	})
}

// columnCustomFields lists information_schema.columns descriptors carried
// through as custom attributes, as (attribute, row key) pairs.
var columnCustomFields = [][2]string{
	{"columnDefault", "column_default"},
	{"characterMaximumLength", "character_maximum_length"},
	{"characterOctetLength", "character_octet_length"},
	{"numericPrecision", "numeric_precision"},
	{"numericPrecisionRadix", "numeric_precision_radix"},
	{"numericScale", "numeric_scale"},
	{"datetimePrecision", "datetime_precision"},
	{"intervalType", "interval_type"},
	{"intervalPrecision", "interval_precision"},
	{"characterSetCatalog", "character_set_catalog"},
	{"characterSetSchema", "character_set_schema"},
	{"characterSetName", "character_set_name"},
	{"collationCatalog", "collation_catalog"},
	{"collationSchema", "collation_schema"},
	{"collationName", "collation_name"},
	{"domainCatalog", "domain_catalog"},
	{"domainSchema", "domain_schema"},
	{"domainName", "domain_name"},
	{"udtCatalog", "udt_catalog"},
	{"udtSchema", "udt_schema"},
	{"udtName", "udt_name"},
	{"scopeCatalog", "scope_catalog"},
	{"scopeSchema", "scope_schema"},
	{"scopeName", "scope_name"},
	{"maximumCardinality", "maximum_cardinality"},
	{"dtdIdentifier", "dtd_identifier"},
	{"isSelfReferencing", "is_self_referencing"},
	{"isIdentity", "is_identity"},
	{"identityGeneration", "identity_generation"},
	{"identityStart", "identity_start"},
	{"identityIncrement", "identity_increment"},
	{"identityMaximum", "identity_maximum"},
	{"identityMinimum", "identity_minimum"},
	{"identityCycle", "identity_cycle"},
	{"isGenerated", "is_generated"},
	{"generationExpression", "generation_expression"},
	{"isUpdatable", "is_updatable"},
	{"columnDescription", "column_description"},
}

// ColumnMapper maps column rows.
var ColumnMapper = MapperFunc(mapColumn)

func mapColumn(row core.Row) (core.AttributeSet, error) {
	f := fieldReader{row: row}
	conn := f.str(KeyConnectionQualifiedName, "")
	database := f.str("table_catalog", "")
	schema := f.str("table_schema", "")
	table := f.str("table_name", "")
	name := f.str("column_name", "")
	dataType := f.str("data_type", "")
	// Ordinal positions are 1-based; an unknown position must not read as "no order".
	order := f.int("ordinal_position", 1)
	if f.err != nil {
		return core.AttributeSet{}, f.err
	}

	custom := make(core.Attributes, len(columnCustomFields)+1)
	for _, field := range columnCustomFields {
		custom[field[0]] = f.raw(field[1], "")
	}
	custom["columnCategory"] = f.raw("column_category", DefaultColumnCategory)

	return core.AttributeSet{
		Attributes: core.Attributes{
			"name":                    name,
			"qualifiedName":           BuildQualifiedName(conn, database, schema, table, name),
			"connectionQualifiedName": conn,
			"tableName":               table,
			"schemaName":              schema,
			"databaseName":            database,
			"isNullable":              row.Equals("is_nullable", "YES"),
			"dataType":                dataType,
			"order":                   order,
		},
		CustomAttributes: custom,
	}, nil
}
