// Package service implements the catalog listing services: filter and
// sort resolution, pagination, and the local/remote plugin merger.
package service

import (
	"github.com/pluginhub-dev/pluginhub/internal/hub/database"
	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

// Page size defaults and cap.
const (
	DefaultServerLimit      = 30
	DefaultMarketplaceLimit = 20
	DefaultPluginLimit      = 50
	MaxLimit                = 100

	// mergeFetchLimit bounds the broad database query behind the merged
	// plugin listing. External catalogs can be much larger than the
	// curated local set; the cap bounds merge cost.
	mergeFetchLimit = 1000
)

// Page is one page of listing results.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// FilterAll is the sentinel filter value meaning "do not filter".
const FilterAll = "all"

// ParseSort validates a sort string into the closed Sort set; unknown or
// missing values fall back to the default relevance sort. The listing
// services never see an invalid value.
func ParseSort(raw string) database.Sort {
	switch database.Sort(raw) {
	case database.SortName, database.SortNameDesc, database.SortRecent,
		database.SortStars, database.SortDownloads, database.SortRelevance:
		return database.Sort(raw)
	default:
		return database.SortRelevance
	}
}

// ParseFilterValue normalizes a categorical filter: the "all" sentinel
// and empty strings both mean unfiltered.
func ParseFilterValue(raw string) string {
	if raw == FilterAll {
		return ""
	}
	return raw
}

// ParsePluginType validates a plugin type filter; unknown values fall
// back to unfiltered.
func ParsePluginType(raw string) string {
	switch raw {
	case models.PluginTypePlugin, models.PluginTypeSkill, models.PluginTypeCommand,
		models.PluginTypeHook, models.PluginTypeSubagent:
		return raw
	default:
		return ""
	}
}

// ParseSourceRegistry validates a source registry filter; unknown values
// fall back to unfiltered.
func ParseSourceRegistry(raw string) string {
	switch raw {
	case models.SourceOfficial, models.SourceDockerHub, models.SourceLocal, models.SourceCommunity:
		return raw
	default:
		return ""
	}
}

// ParseVerification validates a verification filter; unknown values fall
// back to unfiltered.
func ParseVerification(raw string) string {
	switch raw {
	case models.VerificationVerified, models.VerificationCommunity, models.VerificationUnverified:
		return raw
	default:
		return ""
	}
}

// clampLimit applies the per-endpoint default for negative limits and
// the global cap. An explicit zero is honored: it yields an empty page
// with a truthful total.
func clampLimit(limit, fallback int) int {
	if limit < 0 {
		return fallback
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
