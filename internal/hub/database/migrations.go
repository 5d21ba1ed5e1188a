package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Migration is one versioned schema change. Versions are applied in
// order and recorded in schema_migrations; already-applied versions are
// skipped.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_mcp_servers",
		SQL: `
		CREATE TABLE IF NOT EXISTS mcp_servers (
			slug            TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			display_name    TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			category        TEXT NOT NULL DEFAULT 'utilities',
			tags            JSONB,
			vendor          TEXT,
			source_registry TEXT NOT NULL,
			verification    TEXT NOT NULL DEFAULT 'unverified',
			server_type     TEXT NOT NULL DEFAULT 'stdio',
			repository_url  TEXT,
			docker_image    TEXT,
			install_methods JSONB,
			github_stars    BIGINT,
			docker_pulls    BIGINT,
			download_count  BIGINT,
			active          BOOLEAN NOT NULL DEFAULT TRUE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_indexed_at TIMESTAMPTZ,
			UNIQUE (source_registry, name)
		)`,
	},
	{
		Version: 2,
		Name:    "create_marketplaces",
		SQL: `
		CREATE TABLE IF NOT EXISTS marketplaces (
			slug           TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			display_name   TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			category       TEXT NOT NULL DEFAULT 'utilities',
			tags           JSONB,
			maintainer     TEXT,
			repository_url TEXT,
			plugin_count   INT NOT NULL DEFAULT 0,
			skill_count    INT NOT NULL DEFAULT 0,
			github_stars   BIGINT,
			download_count BIGINT,
			verification   TEXT NOT NULL DEFAULT 'unverified',
			active         BOOLEAN NOT NULL DEFAULT TRUE,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		Version: 3,
		Name:    "create_plugins",
		SQL: `
		CREATE TABLE IF NOT EXISTS plugins (
			slug            TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			display_name    TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			plugin_type     TEXT NOT NULL DEFAULT 'plugin',
			category        TEXT NOT NULL DEFAULT 'utilities',
			keywords        JSONB,
			marketplace     TEXT,
			source_registry TEXT NOT NULL,
			verification    TEXT NOT NULL DEFAULT 'unverified',
			github_stars    BIGINT,
			download_count  BIGINT,
			active          BOOLEAN NOT NULL DEFAULT TRUE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		Version: 4,
		Name:    "create_stats_snapshots",
		SQL: `
		CREATE TABLE IF NOT EXISTS stats_snapshots (
			id             BIGSERIAL PRIMARY KEY,
			server_slug    TEXT NOT NULL,
			github_stars   BIGINT,
			docker_pulls   BIGINT,
			download_count BIGINT,
			captured_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS stats_snapshots_server_slug_idx
			ON stats_snapshots (server_slug, captured_at)`,
	},
	{
		Version: 5,
		Name:    "listing_indexes",
		SQL: `
		CREATE INDEX IF NOT EXISTS mcp_servers_active_idx ON mcp_servers (active, updated_at DESC);
		CREATE INDEX IF NOT EXISTS mcp_servers_category_idx ON mcp_servers (category);
		CREATE INDEX IF NOT EXISTS plugins_active_idx ON plugins (active, updated_at DESC);
		CREATE INDEX IF NOT EXISTS marketplaces_active_idx ON marketplaces (active, updated_at DESC)`,
	},
}

// Migrator applies pending schema migrations on a single connection.
type Migrator struct {
	conn *pgx.Conn
}

// NewMigrator creates a Migrator bound to the given connection.
func NewMigrator(conn *pgx.Conn) *Migrator {
	return &Migrator{conn: conn}
}

// Migrate applies all pending migrations in version order.
func (m *Migrator) Migrate(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INT PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	for _, migration := range migrations {
		var exists bool
		err := m.conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`,
			migration.Version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", migration.Version, err)
		}
		if exists {
			continue
		}

		if _, err := m.conn.Exec(ctx, migration.SQL); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		if _, err := m.conn.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			migration.Version, migration.Name,
		); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
