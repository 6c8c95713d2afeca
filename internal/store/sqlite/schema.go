package sqlite

// schemaSQL is the single source of truth for the on-disk layout. Applied
// idempotently on every Open; there is no migration history because records
// are fully re-derivable from the upstream catalogs.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS permits (
	id TEXT PRIMARY KEY,
	origin TEXT NOT NULL,
	location_text TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	value_estimate REAL NOT NULL DEFAULT 0,
	responsible_party TEXT NOT NULL DEFAULT '',
	event_date TEXT NOT NULL DEFAULT '',
	lifecycle_status TEXT NOT NULL DEFAULT '',
	area_key TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	observed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_permits_origin ON permits(origin);
CREATE INDEX IF NOT EXISTS idx_permits_event_date ON permits(event_date);
CREATE INDEX IF NOT EXISTS idx_permits_area_key ON permits(area_key);
CREATE INDEX IF NOT EXISTS idx_permits_value ON permits(value_estimate);

CREATE TABLE IF NOT EXISTS area_risk (
	area_key TEXT PRIMARY KEY,
	poverty_rate REAL,
	median_build_year INTEGER,
	crime_score INTEGER NOT NULL,
	fire_score INTEGER NOT NULL,
	risk_level TEXT NOT NULL CHECK(risk_level IN ('LOW','MEDIUM','HIGH')),
	updated_at TEXT NOT NULL
);
`
