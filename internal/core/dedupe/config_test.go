package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresetByName(t *testing.T) {
	cfg, err := PresetByName("aggressive")
	assert.NoError(t, err)
	assert.Equal(t, "aggressive", cfg.Name)
	assert.Equal(t, 0.75, cfg.MinCombinedScore)
	assert.True(t, cfg.EnableRoleMatching)

	cfg, err = PresetByName("conservative")
	assert.NoError(t, err)
	assert.Equal(t, 0.85, cfg.MinCombinedScore)
	assert.False(t, cfg.EnableRoleMatching)

	// Empty name falls back to the balanced default.
	cfg, err = PresetByName("")
	assert.NoError(t, err)
	assert.Equal(t, "name_focused", cfg.Name)
	assert.Equal(t, 0.8, cfg.MinCombinedScore)

	_, err = PresetByName("yolo")
	assert.Error(t, err)
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range []string{PresetAggressive, PresetConservative, PresetNameFocused} {
		cfg, err := PresetByName(name)
		assert.NoError(t, err)
		assert.NoError(t, cfg.Validate(), name)
	}
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	cfg := NameFocusedPreset()
	cfg.MinCombinedScore = 1.5
	assert.Error(t, cfg.Validate())

	cfg = NameFocusedPreset()
	cfg.Weights.GraphStructure = -0.1
	assert.Error(t, cfg.Validate())

	cfg = NameFocusedPreset()
	cfg.ClusteringTolerance = 0
	assert.Error(t, cfg.Validate())

	cfg = NameFocusedPreset()
	cfg.HighConnectivityThreshold = -1
	assert.Error(t, cfg.Validate())

	cfg = NameFocusedPreset()
	cfg.Workers = -2
	assert.Error(t, cfg.Validate())

	cfg = NameFocusedPreset()
	cfg.NearMissLimit = -1
	assert.Error(t, cfg.Validate())
}
