package postgres

// systemSchemas are Postgres-internal; supabaseSchemas are managed by the
// Supabase platform rather than the project owner.
const (
	systemSchemas   = `'pg_catalog', 'information_schema'`
	supabaseSchemas = `'auth', 'storage', 'realtime', 'extensions', 'graphql', 'graphql_public',
		'vault', 'pgsodium', 'pgsodium_masks', 'supabase_functions', 'supabase_migrations', 'net', 'cron'`
)

const databaseSQL = `
SELECT d.datname AS database_name
FROM pg_database d
WHERE d.datname = current_database()`

const schemaSQL = `
SELECT
	current_database() AS database_name,
	n.nspname AS schema_name,
	pg_get_userbyid(n.nspowner) AS schema_owner,
	obj_description(n.oid, 'pg_namespace') AS schema_description,
	CASE
		WHEN n.nspname IN (` + systemSchemas + `) OR n.nspname LIKE 'pg\_toast%' THEN 'system'
		WHEN n.nspname IN (` + supabaseSchemas + `) THEN 'supabase'
		ELSE 'user'
	END AS schema_type,
	(SELECT count(*) FROM pg_class c WHERE c.relnamespace = n.oid AND c.relkind IN ('r', 'p')) AS table_count,
	(SELECT count(*) FROM pg_class c WHERE c.relnamespace = n.oid AND c.relkind IN ('v', 'm')) AS view_count
FROM pg_namespace n
WHERE n.nspname NOT LIKE 'pg\_temp\_%'
	AND n.nspname NOT LIKE 'pg\_toast\_temp\_%'
ORDER BY n.nspname`

const tableSQL = `
SELECT
	t.table_catalog,
	t.table_schema,
	t.table_name,
	t.table_type,
	pg_size_pretty(pg_total_relation_size(c.oid)) AS table_size,
	COALESCE(s.n_live_tup, 0) AS row_count,
	COALESCE(s.n_dead_tup, 0) AS dead_row_count,
	COALESCE(s.last_analyze::text, '') AS last_analyze,
	COALESCE(s.last_autoanalyze::text, '') AS last_autoanalyze,
	COALESCE(s.last_vacuum::text, '') AS last_vacuum,
	COALESCE(s.last_autovacuum::text, '') AS last_autovacuum,
	c.relrowsecurity AS has_row_level_security,
	CASE
		WHEN t.table_schema IN (` + systemSchemas + `) THEN 'system'
		WHEN t.table_schema IN (` + supabaseSchemas + `) THEN 'supabase'
		WHEN t.table_type = 'VIEW' THEN 'view'
		ELSE 'user'
	END AS table_category
FROM information_schema.tables t
JOIN pg_namespace n ON n.nspname = t.table_schema
JOIN pg_class c ON c.relname = t.table_name AND c.relnamespace = n.oid
LEFT JOIN pg_stat_all_tables s ON s.relid = c.oid
WHERE t.table_schema NOT IN (` + systemSchemas + `)
ORDER BY t.table_schema, t.table_name`

const columnSQL = `
SELECT
	col.*,
	col_description(c.oid, col.ordinal_position::int) AS column_description,
	CASE
		WHEN EXISTS (
			SELECT 1
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON kcu.constraint_name = tc.constraint_name
				AND kcu.table_schema = tc.table_schema
				AND kcu.table_name = tc.table_name
			WHERE tc.constraint_type = 'PRIMARY KEY'
				AND kcu.table_schema = col.table_schema
				AND kcu.table_name = col.table_name
				AND kcu.column_name = col.column_name
		) THEN 'primary_key'
		WHEN EXISTS (
			SELECT 1
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON kcu.constraint_name = tc.constraint_name
				AND kcu.table_schema = tc.table_schema
				AND kcu.table_name = tc.table_name
			WHERE tc.constraint_type = 'FOREIGN KEY'
				AND kcu.table_schema = col.table_schema
				AND kcu.table_name = col.table_name
				AND kcu.column_name = col.column_name
		) THEN 'foreign_key'
		ELSE 'standard_column'
	END AS column_category
FROM information_schema.columns col
JOIN pg_namespace n ON n.nspname = col.table_schema
JOIN pg_class c ON c.relname = col.table_name AND c.relnamespace = n.oid
WHERE col.table_schema NOT IN (` + systemSchemas + `)
ORDER BY col.table_schema, col.table_name, col.ordinal_position`
