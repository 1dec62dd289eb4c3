package sprite

import "strings"

// Classify maps a folder name to an entity type. Overrides are matched on the
// exact name first; prefixes are matched case-insensitively. The second
// result is false when no rule applies.
func Classify(name string, overrides map[string]string) (EntityType, bool) {
	if t, ok := overrides[name]; ok {
		return EntityType(t), true
	}

	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "npc_"):
		return NPC, true
	case strings.HasPrefix(lower, "i_"):
		return Item, true
	case strings.HasPrefix(lower, "w_"):
		return Weapon, true
	case strings.HasPrefix(lower, "pj_"):
		return Hero, true
	case isEnemyCode(lower):
		return Enemy, true
	case strings.HasPrefix(lower, "enemy"):
		return Enemy, true
	}
	return "", false
}

// isEnemyCode reports whether lower starts with e<digits>_.
func isEnemyCode(lower string) bool {
	prefix, _, ok := strings.Cut(lower, "_")
	if !ok || len(prefix) < 2 || prefix[0] != 'e' {
		return false
	}
	return isDigits(prefix[1:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
