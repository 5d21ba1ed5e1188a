package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

// PostgreSQL is an implementation of the Database interface using PostgreSQL
type PostgreSQL struct {
	pool *pgxpool.Pool
}

// NewPostgreSQL creates a new instance of the PostgreSQL database
func NewPostgreSQL(ctx context.Context, connectionURI string) (*PostgreSQL, error) {
	config, err := pgxpool.ParseConfig(connectionURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL config: %w", err)
	}

	// Stability-focused pool defaults
	config.MaxConns = 30
	config.MinConns = 5
	config.MaxConnIdleTime = 30 * time.Minute
	config.MaxConnLifetime = 2 * time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	// Run migrations using a single connection from the pool
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for migrations: %w", err)
	}
	defer conn.Release()

	if err := NewMigrator(conn.Conn()).Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	return &PostgreSQL{pool: pool}, nil
}

// Close releases the connection pool.
func (db *PostgreSQL) Close() {
	db.pool.Close()
}

// decodeStringList parses a jsonb string-array column defensively:
// malformed stored JSON yields nil rather than an error.
func decodeStringList(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// decodeInstallMethods parses the install_methods jsonb column defensively.
func decodeInstallMethods(raw []byte) []models.InstallMethod {
	if len(raw) == 0 {
		return nil
	}
	var out []models.InstallMethod
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func nullableInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// searchCondition builds the OR'd free-text predicate: case-insensitive
// substring match on the name, display name and description columns plus
// a literal (non-substring) tag membership match on the jsonb tag column.
// It appends its arguments to args and returns the SQL fragment.
func searchCondition(search, tagColumn string, args *[]any) string {
	pattern := "%" + search + "%"
	base := len(*args)
	*args = append(*args, pattern, pattern, pattern, search)
	return fmt.Sprintf(
		`(name ILIKE $%d OR display_name ILIKE $%d OR description ILIKE $%d OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(%s) AS t(tag) WHERE lower(t.tag) = lower($%d)))`,
		base+1, base+2, base+3, tagColumn, base+4,
	)
}

// orderClause resolves a Sort into an ORDER BY clause. Relevance with a
// search term produces a tiered match-quality ordering (exact name, name
// prefix, display-name substring, description substring, everything
// else), each tier broken by descending popularity; without a search
// term it falls back to popularity alone.
func orderClause(sort Sort, search string, args *[]any) string {
	popularity := "COALESCE(download_count, 0) DESC"

	switch sort {
	case SortName:
		return "ORDER BY display_name ASC"
	case SortNameDesc:
		return "ORDER BY display_name DESC"
	case SortRecent:
		return "ORDER BY updated_at DESC"
	case SortStars:
		return "ORDER BY COALESCE(github_stars, 0) DESC"
	case SortDownloads:
		return "ORDER BY " + popularity
	}

	// Default / relevance
	if search == "" {
		return "ORDER BY " + popularity
	}

	base := len(*args)
	*args = append(*args, search, search+"%", "%"+search+"%")
	return fmt.Sprintf(`ORDER BY CASE
		WHEN lower(name) = lower($%d) THEN 0
		WHEN name ILIKE $%d THEN 1
		WHEN display_name ILIKE $%d THEN 2
		WHEN description ILIKE $%d THEN 3
		ELSE 4 END, %s`,
		base+1, base+2, base+3, base+3, popularity)
}

func serverWhere(filter *ServerFilter, args *[]any) string {
	conditions := []string{"active = TRUE"}

	if filter != nil {
		if filter.Category != "" {
			*args = append(*args, filter.Category)
			conditions = append(conditions, fmt.Sprintf("category = $%d", len(*args)))
		}
		if filter.SourceRegistry != "" {
			*args = append(*args, filter.SourceRegistry)
			conditions = append(conditions, fmt.Sprintf("source_registry = $%d", len(*args)))
		}
		if filter.Verification != "" {
			*args = append(*args, filter.Verification)
			conditions = append(conditions, fmt.Sprintf("verification = $%d", len(*args)))
		}
		if filter.Search != "" {
			conditions = append(conditions, searchCondition(filter.Search, "tags", args))
		}
	}

	return "WHERE " + strings.Join(conditions, " AND ")
}

const serverColumns = `slug, name, display_name, description, category, tags, vendor,
		source_registry, verification, server_type, repository_url, docker_image,
		install_methods, github_stars, docker_pulls, download_count, active,
		created_at, updated_at, last_indexed_at`

func scanServer(row pgx.Rows) (*models.MCPServer, error) {
	var server models.MCPServer
	var tagsJSON, methodsJSON []byte
	var vendor, repositoryURL, dockerImage sql.NullString
	var stars, pulls, downloads sql.NullInt64
	var lastIndexedAt sql.NullTime

	err := row.Scan(
		&server.Slug, &server.Name, &server.DisplayName, &server.Description,
		&server.Category, &tagsJSON, &vendor, &server.SourceRegistry,
		&server.Verification, &server.ServerType, &repositoryURL, &dockerImage,
		&methodsJSON, &stars, &pulls, &downloads, &server.Active,
		&server.CreatedAt, &server.UpdatedAt, &lastIndexedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan server row: %w", err)
	}

	server.Tags = decodeStringList(tagsJSON)
	server.InstallMethods = decodeInstallMethods(methodsJSON)
	server.Vendor = vendor.String
	server.RepositoryURL = repositoryURL.String
	server.DockerImage = dockerImage.String
	server.GitHubStars = nullableInt(stars)
	server.DockerPulls = nullableInt(pulls)
	server.DownloadCount = nullableInt(downloads)
	server.LastIndexedAt = nullableTime(lastIndexedAt)

	return &server, nil
}

// ListMCPServers returns one page of active servers under the filter and sort.
func (db *PostgreSQL) ListMCPServers(ctx context.Context, filter *ServerFilter, sort Sort, limit, offset int) ([]*models.MCPServer, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if limit <= 0 {
		return []*models.MCPServer{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	args := []any{}
	whereClause := serverWhere(filter, &args)
	var search string
	if filter != nil {
		search = filter.Search
	}
	order := orderClause(sort, search, &args)

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM mcp_servers
		%s
		%s
		LIMIT $%d OFFSET $%d
	`, serverColumns, whereClause, order, len(args)-1, len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query servers: %w", err)
	}
	defer rows.Close()

	results := []*models.MCPServer{}
	for rows.Next() {
		server, err := scanServer(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, server)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// CountMCPServers counts active servers under the same predicate as ListMCPServers.
func (db *PostgreSQL) CountMCPServers(ctx context.Context, filter *ServerFilter) (int, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	args := []any{}
	whereClause := serverWhere(filter, &args)

	var count int
	err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM mcp_servers "+whereClause, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count servers: %w", err)
	}
	return count, nil
}

func marketplaceWhere(filter *MarketplaceFilter, args *[]any) string {
	conditions := []string{"active = TRUE"}

	if filter != nil {
		if filter.Category != "" {
			*args = append(*args, filter.Category)
			conditions = append(conditions, fmt.Sprintf("category = $%d", len(*args)))
		}
		if filter.Search != "" {
			conditions = append(conditions, searchCondition(filter.Search, "tags", args))
		}
	}

	return "WHERE " + strings.Join(conditions, " AND ")
}

const marketplaceColumns = `slug, name, display_name, description, category, tags, maintainer,
		repository_url, plugin_count, skill_count, github_stars, download_count,
		verification, active, created_at, updated_at`

// ListMarketplaces returns one page of active marketplaces under the filter and sort.
func (db *PostgreSQL) ListMarketplaces(ctx context.Context, filter *MarketplaceFilter, sort Sort, limit, offset int) ([]*models.Marketplace, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if limit <= 0 {
		return []*models.Marketplace{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	args := []any{}
	whereClause := marketplaceWhere(filter, &args)
	var search string
	if filter != nil {
		search = filter.Search
	}
	order := orderClause(sort, search, &args)

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM marketplaces
		%s
		%s
		LIMIT $%d OFFSET $%d
	`, marketplaceColumns, whereClause, order, len(args)-1, len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query marketplaces: %w", err)
	}
	defer rows.Close()

	results := []*models.Marketplace{}
	for rows.Next() {
		var m models.Marketplace
		var tagsJSON []byte
		var maintainer, repositoryURL sql.NullString
		var stars, downloads sql.NullInt64

		err := rows.Scan(
			&m.Slug, &m.Name, &m.DisplayName, &m.Description, &m.Category,
			&tagsJSON, &maintainer, &repositoryURL, &m.PluginCount, &m.SkillCount,
			&stars, &downloads, &m.Verification, &m.Active, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan marketplace row: %w", err)
		}

		m.Tags = decodeStringList(tagsJSON)
		m.Maintainer = maintainer.String
		m.RepositoryURL = repositoryURL.String
		m.GitHubStars = nullableInt(stars)
		m.DownloadCount = nullableInt(downloads)

		results = append(results, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// CountMarketplaces counts active marketplaces under the same predicate as ListMarketplaces.
func (db *PostgreSQL) CountMarketplaces(ctx context.Context, filter *MarketplaceFilter) (int, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	args := []any{}
	whereClause := marketplaceWhere(filter, &args)

	var count int
	err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM marketplaces "+whereClause, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count marketplaces: %w", err)
	}
	return count, nil
}

func pluginWhere(filter *PluginFilter, args *[]any) string {
	conditions := []string{"active = TRUE"}

	if filter != nil {
		if filter.Category != "" {
			*args = append(*args, filter.Category)
			conditions = append(conditions, fmt.Sprintf("category = $%d", len(*args)))
		}
		if filter.PluginType != "" {
			*args = append(*args, filter.PluginType)
			conditions = append(conditions, fmt.Sprintf("plugin_type = $%d", len(*args)))
		}
		if filter.Marketplace != "" {
			*args = append(*args, filter.Marketplace)
			conditions = append(conditions, fmt.Sprintf("marketplace = $%d", len(*args)))
		}
		if filter.Search != "" {
			conditions = append(conditions, searchCondition(filter.Search, "keywords", args))
		}
	}

	return "WHERE " + strings.Join(conditions, " AND ")
}

const pluginColumns = `slug, name, display_name, description, plugin_type, category, keywords,
		marketplace, source_registry, verification, github_stars, download_count,
		active, created_at, updated_at`

// ListPlugins returns one page of active plugin rows under the filter and sort.
func (db *PostgreSQL) ListPlugins(ctx context.Context, filter *PluginFilter, sort Sort, limit, offset int) ([]*models.Plugin, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if limit <= 0 {
		return []*models.Plugin{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	args := []any{}
	whereClause := pluginWhere(filter, &args)
	var search string
	if filter != nil {
		search = filter.Search
	}
	order := orderClause(sort, search, &args)

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM plugins
		%s
		%s
		LIMIT $%d OFFSET $%d
	`, pluginColumns, whereClause, order, len(args)-1, len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plugins: %w", err)
	}
	defer rows.Close()

	results := []*models.Plugin{}
	for rows.Next() {
		var p models.Plugin
		var keywordsJSON []byte
		var marketplace sql.NullString
		var stars, downloads sql.NullInt64

		err := rows.Scan(
			&p.Slug, &p.Name, &p.DisplayName, &p.Description, &p.PluginType,
			&p.Category, &keywordsJSON, &marketplace, &p.SourceRegistry,
			&p.Verification, &stars, &downloads, &p.Active, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plugin row: %w", err)
		}

		p.Keywords = decodeStringList(keywordsJSON)
		p.Marketplace = marketplace.String
		p.GitHubStars = nullableInt(stars)
		p.DownloadCount = nullableInt(downloads)

		results = append(results, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// CountPlugins counts active plugin rows under the same predicate as ListPlugins.
func (db *PostgreSQL) CountPlugins(ctx context.Context, filter *PluginFilter) (int, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	args := []any{}
	whereClause := pluginWhere(filter, &args)

	var count int
	err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM plugins "+whereClause, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count plugins: %w", err)
	}
	return count, nil
}

// UpsertMCPServer inserts the record or, on slug conflict, overwrites all
// descriptive fields with the fetched values. The upstream is
// authoritative for descriptive fields; created_at, active and the stats
// columns are left untouched on update.
func (db *PostgreSQL) UpsertMCPServer(ctx context.Context, server *models.MCPServer) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if server == nil || server.Slug == "" || server.Name == "" {
		return fmt.Errorf("%w: server slug and name are required", ErrInvalidInput)
	}

	tagsJSON, err := json.Marshal(server.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	methodsJSON, err := json.Marshal(server.InstallMethods)
	if err != nil {
		return fmt.Errorf("failed to marshal install methods: %w", err)
	}

	query := `
		INSERT INTO mcp_servers (
			slug, name, display_name, description, category, tags, vendor,
			source_registry, verification, server_type, repository_url,
			docker_image, install_methods, docker_pulls, download_count,
			last_indexed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())
		ON CONFLICT (slug) DO UPDATE SET
			name            = EXCLUDED.name,
			display_name    = EXCLUDED.display_name,
			description     = EXCLUDED.description,
			category        = EXCLUDED.category,
			tags            = EXCLUDED.tags,
			vendor          = EXCLUDED.vendor,
			verification    = EXCLUDED.verification,
			server_type     = EXCLUDED.server_type,
			repository_url  = COALESCE(EXCLUDED.repository_url, mcp_servers.repository_url),
			docker_image    = COALESCE(EXCLUDED.docker_image, mcp_servers.docker_image),
			install_methods = EXCLUDED.install_methods,
			docker_pulls    = COALESCE(EXCLUDED.docker_pulls, mcp_servers.docker_pulls),
			download_count  = COALESCE(EXCLUDED.download_count, mcp_servers.download_count),
			updated_at      = now(),
			last_indexed_at = now()
	`

	_, err = db.pool.Exec(ctx, query,
		server.Slug, server.Name, server.DisplayName, server.Description,
		server.Category, tagsJSON, emptyToNull(server.Vendor),
		server.SourceRegistry, server.Verification, server.ServerType,
		emptyToNull(server.RepositoryURL), emptyToNull(server.DockerImage),
		methodsJSON, server.DockerPulls, server.DownloadCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert server: %w", err)
	}
	return nil
}

func emptyToNull(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ListActiveServersForStats returns every active server ordered by slug
// so the stats syncer can iterate them deterministically.
func (db *PostgreSQL) ListActiveServersForStats(ctx context.Context) ([]*models.MCPServer, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM mcp_servers
		WHERE active = TRUE
		ORDER BY slug
	`, serverColumns)

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query servers for stats: %w", err)
	}
	defer rows.Close()

	results := []*models.MCPServer{}
	for rows.Next() {
		server, err := scanServer(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, server)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// UpdateServerStats writes non-nil metrics onto the server row.
func (db *PostgreSQL) UpdateServerStats(ctx context.Context, slug string, stats ServerStats) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	query := `
		UPDATE mcp_servers
		SET github_stars = COALESCE($1, github_stars),
		    docker_pulls = COALESCE($2, docker_pulls),
		    download_count = COALESCE($2, download_count),
		    updated_at = now()
		WHERE slug = $3
	`

	tag, err := db.pool.Exec(ctx, query, stats.GitHubStars, stats.DockerPulls, slug)
	if err != nil {
		return fmt.Errorf("failed to update server stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertStatsSnapshot appends one immutable snapshot row.
func (db *PostgreSQL) InsertStatsSnapshot(ctx context.Context, snapshot *models.StatsSnapshot) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if snapshot == nil || snapshot.ServerSlug == "" {
		return fmt.Errorf("%w: snapshot server slug is required", ErrInvalidInput)
	}

	_, err := db.pool.Exec(ctx, `
		INSERT INTO stats_snapshots (server_slug, github_stars, docker_pulls, download_count)
		VALUES ($1, $2, $3, $4)
	`, snapshot.ServerSlug, snapshot.GitHubStars, snapshot.DockerPulls, snapshot.DownloadCount)
	if err != nil {
		return fmt.Errorf("failed to insert stats snapshot: %w", err)
	}
	return nil
}
