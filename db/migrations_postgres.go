package db

// PostgreSQL migrations for prodscan

var postgresMigrations = []Migration{
	{
		Version: 1,
		Name:    "create_extractions_table",
		Up: `
			CREATE TABLE IF NOT EXISTS prodscan_extractions (
				id TEXT PRIMARY KEY,
				url TEXT NOT NULL UNIQUE,
				data TEXT NOT NULL,
				slug TEXT,
				created_at TIMESTAMPTZ DEFAULT NOW(),
				updated_at TIMESTAMPTZ DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_prodscan_extractions_url ON prodscan_extractions(url);
			CREATE INDEX IF NOT EXISTS idx_prodscan_extractions_created_at ON prodscan_extractions(created_at);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_prodscan_extractions_created_at;
			DROP INDEX IF EXISTS idx_prodscan_extractions_url;
			DROP TABLE IF EXISTS prodscan_extractions;
		`,
	},
	{
		Version: 2,
		Name:    "create_users_table",
		Up: `
			CREATE TABLE IF NOT EXISTS prodscan_users (
				id TEXT PRIMARY KEY,
				expertise TEXT NOT NULL DEFAULT '',
				product_types TEXT NOT NULL DEFAULT '[]',
				evaluation_criteria TEXT NOT NULL DEFAULT '[]',
				onboarding_completed BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ DEFAULT NOW(),
				updated_at TIMESTAMPTZ DEFAULT NOW()
			);
		`,
		Down: `
			DROP TABLE IF EXISTS prodscan_users;
		`,
	},
	{
		Version: 3,
		Name:    "add_extractions_slug_index",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_prodscan_extractions_slug ON prodscan_extractions(slug);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_prodscan_extractions_slug;
		`,
	},
}
