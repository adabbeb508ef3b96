package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testController(t *testing.T, opts ...SettingsOption) *Controller {
	t.Helper()
	settings, err := NewSettings(10, opts...)
	require.NoError(t, err)
	c, err := NewController(ControllerConfig{Settings: settings})
	require.NoError(t, err)
	return c
}

// TestEntityRequiresOwner verifies non-exempt domain objects cannot be
// constructed without an owning controller.
func TestEntityRequiresOwner(t *testing.T) {
	_, err := NewEntity("evaluator", nil)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	c := testController(t)
	e, err := NewEntity("evaluator", c)
	require.NoError(t, err)
	assert.Same(t, c, e.Owner())
	assert.Contains(t, e.Name(), "evaluator-")
}

// TestControllerOwnsItselfAndSettings verifies the two ownership
// exemptions: the controller references itself, and its settings object is
// adopted at construction.
func TestControllerOwnsItselfAndSettings(t *testing.T) {
	settings, err := NewSettings(10)
	require.NoError(t, err)
	assert.Nil(t, settings.Owner(), "settings start unowned")

	c, err := NewController(ControllerConfig{Settings: settings})
	require.NoError(t, err)
	assert.Same(t, c, c.Owner(), "the controller owns itself")
	assert.Same(t, c, settings.Owner(), "settings are adopted by their controller")
}

// TestNewNameUniqueness verifies identities are distinct across
// constructions.
func TestNewNameUniqueness(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		name := NewName("population", nil)
		assert.False(t, seen[name], "identity %q repeated", name)
		seen[name] = true
	}
}

// TestNewNameCustomSource verifies a deterministic source is honored.
func TestNewNameCustomSource(t *testing.T) {
	name := NewName("critter", func() string { return "fixed" })
	assert.Equal(t, "critter-fixed", name)
}
