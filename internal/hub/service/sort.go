package service

import (
	"sort"
	"strings"

	"github.com/pluginhub-dev/pluginhub/internal/hub/database"
	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

// relevanceTier ranks textual match quality against a search term:
// exact case-insensitive name match, then name prefix, then display-name
// substring, then description substring, then everything else.
func relevanceTier(item *models.UnifiedPlugin, search string) int {
	name := strings.ToLower(item.Name)
	switch {
	case name == search:
		return 0
	case strings.HasPrefix(name, search):
		return 1
	case strings.Contains(strings.ToLower(item.DisplayName), search):
		return 2
	case strings.Contains(strings.ToLower(item.Description), search):
		return 3
	default:
		return 4
	}
}

func popularity(item *models.UnifiedPlugin) int64 {
	if item.DownloadCount == nil {
		return 0
	}
	return *item.DownloadCount
}

func stars(item *models.UnifiedPlugin) int64 {
	if item.GitHubStars == nil {
		return 0
	}
	return *item.GitHubStars
}

// sortUnified orders the merged plugin set in memory with the same sort
// semantics the SQL listings use.
func sortUnified(items []models.UnifiedPlugin, by database.Sort, search string) {
	search = strings.ToLower(strings.TrimSpace(search))

	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]

		switch by {
		case database.SortName:
			return strings.ToLower(a.DisplayName) < strings.ToLower(b.DisplayName)
		case database.SortNameDesc:
			return strings.ToLower(a.DisplayName) > strings.ToLower(b.DisplayName)
		case database.SortRecent:
			return a.UpdatedAt.After(b.UpdatedAt)
		case database.SortStars:
			return stars(a) > stars(b)
		case database.SortDownloads:
			return popularity(a) > popularity(b)
		}

		// Default / relevance
		if search != "" {
			ta, tb := relevanceTier(a, search), relevanceTier(b, search)
			if ta != tb {
				return ta < tb
			}
		}
		return popularity(a) > popularity(b)
	})
}

// matchesUnified applies the listing predicate to a local item in
// memory, mirroring the SQL WHERE clause: categorical filters narrow by
// equality, search ORs case-insensitive substring matches on name,
// display name and description plus a literal keyword match.
func matchesUnified(item *models.UnifiedPlugin, pluginType, category, search string) bool {
	if pluginType != "" && item.Type != pluginType {
		return false
	}
	if category != "" && item.Category != category {
		return false
	}
	if search == "" {
		return true
	}

	term := strings.ToLower(search)
	if strings.Contains(strings.ToLower(item.Name), term) ||
		strings.Contains(strings.ToLower(item.DisplayName), term) ||
		strings.Contains(strings.ToLower(item.Description), term) {
		return true
	}
	for _, kw := range item.Keywords {
		if strings.ToLower(kw) == term {
			return true
		}
	}
	return false
}
