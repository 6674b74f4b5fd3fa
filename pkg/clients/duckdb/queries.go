package duckdb

const databaseSQL = `SELECT current_database() AS database_name`

const schemaSQL = `
SELECT
	s.catalog_name AS database_name,
	s.schema_name,
	s.schema_owner,
	CASE
		WHEN s.schema_name IN ('information_schema', 'pg_catalog') THEN 'system'
		ELSE 'user'
	END AS schema_type,
	(SELECT count(*) FROM information_schema.tables t
		WHERE t.table_catalog = s.catalog_name AND t.table_schema = s.schema_name
		AND t.table_type = 'BASE TABLE') AS table_count,
	(SELECT count(*) FROM information_schema.tables t
		WHERE t.table_catalog = s.catalog_name AND t.table_schema = s.schema_name
		AND t.table_type = 'VIEW') AS view_count
FROM information_schema.schemata s
WHERE s.catalog_name = current_database()
ORDER BY s.schema_name`

const tableSQL = `
SELECT
	t.table_catalog,
	t.table_schema,
	t.table_name,
	t.table_type,
	COALESCE(d.estimated_size, 0) AS row_count,
	CASE WHEN t.table_type = 'VIEW' THEN 'view' ELSE 'user' END AS table_category
FROM information_schema.tables t
LEFT JOIN duckdb_tables() d
	ON d.database_name = t.table_catalog
	AND d.schema_name = t.table_schema
	AND d.table_name = t.table_name
WHERE t.table_catalog = current_database()
	AND t.table_schema NOT IN ('information_schema', 'pg_catalog')
ORDER BY t.table_schema, t.table_name`

const columnSQL = `
SELECT c.*
FROM information_schema.columns c
WHERE c.table_catalog = current_database()
	AND c.table_schema NOT IN ('information_schema', 'pg_catalog')
ORDER BY c.table_schema, c.table_name, c.ordinal_position`
