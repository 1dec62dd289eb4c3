package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFramesPerView(t *testing.T) {
	auto := FramesPerViewAuto()
	assert.True(t, auto.IsAuto())
	assert.True(t, auto.Valid())
	assert.Equal(t, 7, auto.Resolve(7))
	assert.Equal(t, "auto", auto.String())

	nine := FramesPerViewExplicit(9)
	assert.False(t, nine.IsAuto())
	assert.Equal(t, 9, nine.Resolve(40))
	assert.Equal(t, "9", nine.String())

	zero := FramesPerViewExplicit(0)
	assert.False(t, zero.IsAuto())
	assert.False(t, zero.Valid())
	assert.False(t, FramesPerViewExplicit(-2).Valid())
}

func TestFramesPerView_JSON(t *testing.T) {
	var m map[string]FramesPerView
	require.NoError(t, json.Unmarshal([]byte(`{"idle":"auto","walk":8,"attack":null}`), &m))
	assert.True(t, m["idle"].IsAuto())
	assert.Equal(t, 8, m["walk"].Count())
	assert.True(t, m["attack"].IsAuto())

	out, err := json.Marshal(map[string]FramesPerView{"idle": FramesPerViewAuto()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"idle":"auto"}`, string(out))

	var bad FramesPerView
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`"many"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &bad))
}

func TestFramesPerView_YAML(t *testing.T) {
	var m map[string]FramesPerView
	require.NoError(t, yaml.Unmarshal([]byte("idle: auto\nwalk: 6\nattack: ~\n"), &m))
	assert.True(t, m["idle"].IsAuto())
	assert.Equal(t, 6, m["walk"].Count())
	assert.True(t, m["attack"].IsAuto())

	var bad map[string]FramesPerView
	assert.Error(t, yaml.Unmarshal([]byte("idle: [1, 2]\n"), &bad))
}

func TestProfile_WithFramesOverrides(t *testing.T) {
	base := DefaultConfig().Profiles[TypeNPC]
	over := base.WithFramesOverrides(map[string]int{"idle": 3})

	assert.Equal(t, 3, over.Frames("idle").Count())
	assert.True(t, base.Frames("idle").IsAuto(), "original profile must not change")
	assert.True(t, over.Frames("missing").IsAuto())
}

func TestParseFramesPerViewOverrides(t *testing.T) {
	got, err := ParseFramesPerViewOverrides([]string{"Walk=4", " idle = 2 "})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"walk": 4, "idle": 2}, got)

	for _, raw := range []string{"walk", "=4", "walk=x", "walk=0"} {
		_, err := ParseFramesPerViewOverrides([]string{raw})
		assert.Error(t, err, raw)
	}
}
