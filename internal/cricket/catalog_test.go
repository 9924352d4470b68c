package cricket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("testdata/catalog.yaml")
	require.NoError(t, err)

	assert.Len(t, c.Teams, 3)
	assert.True(t, c.HasTeam("Delhi Daredevils"))
	assert.Equal(t, "Delhi Capitals", c.Canonical("Delhi Daredevils"))
	assert.Equal(t, "Gujarat Lions", c.Canonical("Gujarat Lions"))
	assert.True(t, c.HasCity("Chennai"))
	assert.False(t, c.HasCity("Pune"))
	assert.Equal(t, []string{"Chennai Super Kings", "Delhi Capitals", "Mumbai Indians"}, c.TeamNames())
	assert.Equal(t, []string{"Chennai", "Delhi", "Mumbai"}, c.SortedCities())

	team, ok := c.Team("Mumbai Indians")
	require.True(t, ok)
	assert.Equal(t, "MI", team.Short)
	assert.Equal(t, []string{"#004BA0", "#FFC72C"}, team.Colors)
}

func TestLoadCatalogMissing(t *testing.T) {
	_, err := LoadCatalog("testdata/nope.yaml")
	assert.ErrorIs(t, err, ErrCatalogNotFound)
}

func TestLoadCatalogInvalid(t *testing.T) {
	_, err := LoadCatalog("testdata/bad_catalog.yaml")
	assert.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Len(t, c.TeamNames(), 8)
	assert.True(t, c.HasTeam("Deccan Chargers"))
	assert.Equal(t, "Sunrisers Hyderabad", c.Canonical("Deccan Chargers"))
	assert.True(t, c.HasCity("Abu Dhabi"))
}
