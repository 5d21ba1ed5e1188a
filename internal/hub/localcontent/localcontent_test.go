package localcontent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

func TestLoadAll_EveryLoaderSucceeds(t *testing.T) {
	results := LoadAll()
	require.Len(t, results, 5)

	for _, r := range results {
		require.NoError(t, r.Err, "loader %s", r.Kind)
		assert.NotEmpty(t, r.Items, "loader %s", r.Kind)
		for _, item := range r.Items {
			assert.Equal(t, r.Kind, item.Type)
			assert.Equal(t, MarketplaceName, item.Marketplace)
			assert.Equal(t, models.SourceLocal, item.Source)
			assert.NotEmpty(t, item.Name)
			assert.NotEmpty(t, item.Description)
		}
	}
}

func TestLoad_MalformedContentReportsFailure(t *testing.T) {
	r := load("plugin", []byte(`{"broken":`))
	assert.Error(t, r.Err)
	assert.Empty(t, r.Items)
	assert.Equal(t, "plugin", r.Kind)
}

func TestLoadSkills_KindIsSkill(t *testing.T) {
	r := LoadSkills()
	require.NoError(t, r.Err)
	for _, item := range r.Items {
		assert.Equal(t, models.PluginTypeSkill, item.Type)
	}
}
