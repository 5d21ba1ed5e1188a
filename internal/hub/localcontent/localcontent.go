// Package localcontent loads the statically curated catalog entries
// shipped with the application: subagents, commands, hooks, skills and
// curated plugins. Entries are embedded at build time and loaded fresh
// on every call; they are never stored in the database and never cached
// across requests.
package localcontent

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

// MarketplaceName identifies the built-in curated marketplace in plugin
// listings and filters.
const MarketplaceName = "local"

//go:embed data/subagents.json
var subagentData []byte

//go:embed data/commands.json
var commandData []byte

//go:embed data/hooks.json
var hookData []byte

//go:embed data/skills.json
var skillData []byte

//go:embed data/plugins.json
var pluginData []byte

// entry is the on-disk shape of one curated item.
type entry struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Keywords    []string `json:"keywords,omitempty"`
}

// LoaderResult is the outcome of one loader: either items or a failure
// reason. A failed loader contributes zero items; callers report the
// failure and carry on with the other loaders.
type LoaderResult struct {
	Kind  string
	Items []models.UnifiedPlugin
	Err   error
}

func load(kind string, data []byte) LoaderResult {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return LoaderResult{Kind: kind, Err: fmt.Errorf("failed to parse %s content: %w", kind, err)}
	}

	items := make([]models.UnifiedPlugin, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.UnifiedPlugin{
			Name:         e.Name,
			DisplayName:  e.DisplayName,
			Description:  e.Description,
			Type:         kind,
			Category:     e.Category,
			Keywords:     e.Keywords,
			Marketplace:  MarketplaceName,
			Source:       models.SourceLocal,
			Verification: models.VerificationVerified,
		})
	}
	return LoaderResult{Kind: kind, Items: items}
}

// LoadSubagents returns the curated subagent entries.
func LoadSubagents() LoaderResult { return load(models.PluginTypeSubagent, subagentData) }

// LoadCommands returns the curated slash-command entries.
func LoadCommands() LoaderResult { return load(models.PluginTypeCommand, commandData) }

// LoadHooks returns the curated hook entries.
func LoadHooks() LoaderResult { return load(models.PluginTypeHook, hookData) }

// LoadSkills returns the curated skill entries.
func LoadSkills() LoaderResult { return load(models.PluginTypeSkill, skillData) }

// LoadPlugins returns the curated plugin entries.
func LoadPlugins() LoaderResult { return load(models.PluginTypePlugin, pluginData) }

// LoadAll runs every loader and returns one result per loader, in a
// fixed order. Individual failures do not abort the others.
func LoadAll() []LoaderResult {
	return []LoaderResult{
		LoadPlugins(),
		LoadSkills(),
		LoadCommands(),
		LoadHooks(),
		LoadSubagents(),
	}
}
