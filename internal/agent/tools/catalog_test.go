package tools

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxagent/server/internal/agent/model"
)

func catalogNames(infos []*schema.ToolInfo) []string {
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return names
}

func TestCatalogWithoutTracker(t *testing.T) {
	infos := Catalog(model.FeatureConfig{SprintSupport: true, SmartAssignment: true}, false)
	assert.Equal(t, []string{NameCurrentPeriod}, catalogNames(infos))
}

func TestCatalogBaseline(t *testing.T) {
	infos := Catalog(model.FeatureConfig{}, true)
	assert.Equal(t, []string{
		NameCurrentPeriod,
		NameReadTickets,
		NameCreateTicket,
		NameModifyTicket,
	}, catalogNames(infos))
}

func TestCatalogFeatureFlags(t *testing.T) {
	infos := Catalog(model.FeatureConfig{SprintSupport: true}, true)
	names := catalogNames(infos)
	assert.Contains(t, names, NameGetSprints)
	assert.Contains(t, names, NameGetActiveSprint)
	assert.NotContains(t, names, NameGetProjectUsers)
	assert.NotContains(t, names, NameGetUserWorkload)

	infos = Catalog(model.FeatureConfig{SmartAssignment: true}, true)
	names = catalogNames(infos)
	assert.Contains(t, names, NameGetProjectUsers)
	assert.Contains(t, names, NameGetUserWorkload)
	assert.NotContains(t, names, NameGetSprints)
}

func TestCatalogSprintFieldsGated(t *testing.T) {
	find := func(infos []*schema.ToolInfo, name string) *schema.ToolInfo {
		for _, info := range infos {
			if info.Name == name {
				return info
			}
		}
		return nil
	}

	withSprints := find(Catalog(model.FeatureConfig{SprintSupport: true}, true), NameCreateTicket)
	require.NotNil(t, withSprints)
	schemaWith, err := withSprints.ParamsOneOf.ToOpenAPIV3()
	require.NoError(t, err)
	assert.Contains(t, schemaWith.Properties, "sprint_id")
	assert.Contains(t, schemaWith.Properties, "due_date")

	without := find(Catalog(model.FeatureConfig{}, true), NameCreateTicket)
	require.NotNil(t, without)
	schemaWithout, err := without.ParamsOneOf.ToOpenAPIV3()
	require.NoError(t, err)
	assert.NotContains(t, schemaWithout.Properties, "sprint_id")
	assert.NotContains(t, schemaWithout.Properties, "due_date")

	// The search tool advertises the sprint filter under the same flag.
	searchWith := find(Catalog(model.FeatureConfig{SprintSupport: true}, true), NameReadTickets)
	require.NotNil(t, searchWith)
	searchSchema, err := searchWith.ParamsOneOf.ToOpenAPIV3()
	require.NoError(t, err)
	assert.Contains(t, searchSchema.Properties, "sprint_id")

	searchWithout := find(Catalog(model.FeatureConfig{}, true), NameReadTickets)
	require.NotNil(t, searchWithout)
	searchSchemaOff, err := searchWithout.ParamsOneOf.ToOpenAPIV3()
	require.NoError(t, err)
	assert.NotContains(t, searchSchemaOff.Properties, "sprint_id")
}

func TestParseKind(t *testing.T) {
	for kind, name := range kindNames {
		got, ok := ParseKind(name)
		assert.True(t, ok)
		assert.Equal(t, kind, got)
		assert.Equal(t, name, kind.String())
	}

	_, ok := ParseKind("nonsense")
	assert.False(t, ok)
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestRequiresTracker(t *testing.T) {
	assert.False(t, KindCurrentPeriod.RequiresTracker())
	assert.True(t, KindCreateTicket.RequiresTracker())
	assert.True(t, KindReadTickets.RequiresTracker())
}
