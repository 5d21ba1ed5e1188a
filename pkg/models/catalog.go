package models

import "time"

// SourceRegistry identifies where a catalog entry was indexed from.
const (
	SourceOfficial  = "official"
	SourceDockerHub = "dockerhub"
	SourceLocal     = "local"
	SourceCommunity = "community"
)

// Verification levels for catalog entries.
const (
	VerificationVerified   = "verified"
	VerificationCommunity  = "community"
	VerificationUnverified = "unverified"
)

// InstallMethod describes one way to install an MCP server.
type InstallMethod struct {
	Type        string `json:"type"` // npm, docker, remote
	Command     string `json:"command,omitempty"`
	Package     string `json:"package,omitempty"`
	Image       string `json:"image,omitempty"`
	URL         string `json:"url,omitempty"`
	Recommended bool   `json:"recommended"`
}

// MCPServer is a directory entry for an MCP server.
// Slug is the natural key: "{sourceRegistry}-{shortName}".
type MCPServer struct {
	Slug           string          `json:"slug"`
	Name           string          `json:"name"`
	DisplayName    string          `json:"displayName"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	Tags           []string        `json:"tags,omitempty"`
	Vendor         string          `json:"vendor,omitempty"`
	SourceRegistry string          `json:"sourceRegistry"`
	Verification   string          `json:"verification"`
	ServerType     string          `json:"serverType"` // stdio, http, sse
	RepositoryURL  string          `json:"repositoryUrl,omitempty"`
	DockerImage    string          `json:"dockerImage,omitempty"`
	InstallMethods []InstallMethod `json:"installMethods,omitempty"`
	GitHubStars    *int64          `json:"githubStars,omitempty"`
	DockerPulls    *int64          `json:"dockerPulls,omitempty"`
	DownloadCount  *int64          `json:"downloadCount,omitempty"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	LastIndexedAt  *time.Time      `json:"lastIndexedAt,omitempty"`
}

// Marketplace is a registry of plugins/skills with aggregate counts.
type Marketplace struct {
	Slug          string     `json:"slug"`
	Name          string     `json:"name"`
	DisplayName   string     `json:"displayName"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	Tags          []string   `json:"tags,omitempty"`
	Maintainer    string     `json:"maintainer,omitempty"`
	RepositoryURL string     `json:"repositoryUrl,omitempty"`
	PluginCount   int        `json:"pluginCount"`
	SkillCount    int        `json:"skillCount"`
	GitHubStars   *int64     `json:"githubStars,omitempty"`
	DownloadCount *int64     `json:"downloadCount,omitempty"`
	Verification  string     `json:"verification"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// PluginType enumerates the kinds of plugin-like entries the unified
// listing spans.
const (
	PluginTypePlugin   = "plugin"
	PluginTypeSkill    = "skill"
	PluginTypeCommand  = "command"
	PluginTypeHook     = "hook"
	PluginTypeSubagent = "subagent"
)

// Plugin is an externally indexed plugin or skill row.
type Plugin struct {
	Slug           string    `json:"slug"`
	Name           string    `json:"name"`
	DisplayName    string    `json:"displayName"`
	Description    string    `json:"description"`
	PluginType     string    `json:"pluginType"`
	Category       string    `json:"category"`
	Keywords       []string  `json:"keywords,omitempty"`
	Marketplace    string    `json:"marketplace,omitempty"`
	SourceRegistry string    `json:"sourceRegistry"`
	Verification   string    `json:"verification"`
	GitHubStars    *int64    `json:"githubStars,omitempty"`
	DownloadCount  *int64    `json:"downloadCount,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UnifiedPlugin is the transient per-request view merging database plugin
// rows with locally curated content. It is never persisted.
type UnifiedPlugin struct {
	Name          string    `json:"name"`
	DisplayName   string    `json:"displayName"`
	Description   string    `json:"description"`
	Type          string    `json:"type"`
	Category      string    `json:"category"`
	Keywords      []string  `json:"keywords,omitempty"`
	Marketplace   string    `json:"marketplace"`
	Source        string    `json:"source"`
	Verification  string    `json:"verification"`
	GitHubStars   *int64    `json:"githubStars,omitempty"`
	DownloadCount *int64    `json:"downloadCount,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// StatsSnapshot is an append-only point-in-time record of a server's
// popularity metrics.
type StatsSnapshot struct {
	ID            int64     `json:"id"`
	ServerSlug    string    `json:"serverSlug"`
	GitHubStars   *int64    `json:"githubStars,omitempty"`
	DockerPulls   *int64    `json:"dockerPulls,omitempty"`
	DownloadCount *int64    `json:"downloadCount,omitempty"`
	CapturedAt    time.Time `json:"capturedAt"`
}
