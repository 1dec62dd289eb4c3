package sprite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		folder string
		want   EntityType
		ok     bool
	}{
		{"npc", "NPC_Merchant", NPC, true},
		{"npc lower", "npc_guard", NPC, true},
		{"item", "I_Potion", Item, true},
		{"weapon", "W_Sword", Weapon, true},
		{"hero", "PJ_Knight", Hero, true},
		{"enemy code", "E12_Slime", Enemy, true},
		{"enemy code lower", "e1_bat", Enemy, true},
		{"enemy word", "EnemyBoss", Enemy, true},
		{"e without digits", "E_Slime", "", false},
		{"e with letters", "Ex1_Slime", "", false},
		{"unknown", "Foo_Bar", "", false},
		{"empty", "", "", false},
		{"no underscore", "npc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.folder, nil)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_OverridesWinAndAreExact(t *testing.T) {
	overrides := map[string]string{"Foo_Bar": "npc", "W_Axe": "hero"}

	got, ok := Classify("Foo_Bar", overrides)
	assert.True(t, ok)
	assert.Equal(t, NPC, got)

	got, _ = Classify("W_Axe", overrides)
	assert.Equal(t, Hero, got, "override beats prefix rule")

	_, ok = Classify("foo_bar", overrides)
	assert.False(t, ok, "override lookup is case-sensitive")
}

func TestClassify_Deterministic(t *testing.T) {
	for _, name := range []string{"NPC_A", "E3_B", "Enemy", "Foo", "w_", "pj_x"} {
		first, firstOK := Classify(name, nil)
		for i := 0; i < 5; i++ {
			got, ok := Classify(name, nil)
			assert.Equal(t, first, got)
			assert.Equal(t, firstOK, ok)
		}
	}
}
