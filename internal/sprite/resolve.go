package sprite

import (
	"fmt"
	"sort"
	"strings"

	"spritegg/internal/logging"
)

// shieldEntity is the only entity that picks up named extra attack folders.
const shieldEntity = "w_shield"

// ResolveInput carries everything ResolveActions needs.
type ResolveInput struct {
	// EntityName is the entity folder name.
	EntityName string
	// Folders are the entity's sub-folders.
	Folders *FolderSet
	// Actions are the profile's required actions in output order.
	Actions []string
	// AttackPriority lists attack folder candidates, best first.
	AttackPriority []string
	// ExtraFolders lists named extra attack folders.
	ExtraFolders []string
}

// ResolveActions resolves the source folder of every required action, then
// appends the numbered and named attack extras.
func ResolveActions(in ResolveInput) ([]ActionEntry, error) {
	folders := in.Folders
	if folders == nil {
		folders = NewFolderSet(nil)
	}

	entries := make([]ActionEntry, 0, len(in.Actions))
	for _, action := range in.Actions {
		var (
			folder string
			ok     bool
		)
		if action == ActionAttack {
			folder, ok = pickAttackFolder(folders, in.AttackPriority)
		} else {
			folder, ok = folders.Find(action)
		}
		if !ok {
			return nil, fmt.Errorf("%w: '%s' in %s", ErrMissingActionFolder, action, in.EntityName)
		}
		entries = append(entries, ActionEntry{Action: action, Folder: folder, FramesKey: action})
	}

	numbered := numberedAttackFolders(folders)
	for _, folder := range numbered {
		entries = append(entries, ActionEntry{Action: ActionAttackExtra, Folder: folder, FramesKey: ActionAttack})
	}

	if strings.EqualFold(in.EntityName, shieldEntity) {
		taken := make(map[string]bool, len(numbered))
		for _, f := range numbered {
			taken[f] = true
		}
		for _, candidate := range in.ExtraFolders {
			folder, ok := folders.Find(candidate)
			if !ok || taken[folder] {
				continue
			}
			taken[folder] = true
			entries = append(entries, ActionEntry{Action: ActionAttackExtra, Folder: folder, FramesKey: ActionAttack})
		}
	}

	logging.ResolveDebug("%s: resolved %d action entries", in.EntityName, len(entries))
	return entries, nil
}

// pickAttackFolder scans the priority list, then falls back to the first
// folder whose name starts with "attack".
func pickAttackFolder(folders *FolderSet, priority []string) (string, bool) {
	for _, candidate := range priority {
		if found, ok := folders.Find(candidate); ok {
			return found, true
		}
	}
	for _, name := range folders.Names() {
		if strings.HasPrefix(strings.ToLower(name), ActionAttack) {
			return name, true
		}
	}
	return "", false
}

type numberedFolder struct {
	digits string
	name   string
}

// numberedAttackFolders returns folders named a<digits>_..., ordered by
// numeric prefix then name.
func numberedAttackFolders(folders *FolderSet) []string {
	var matches []numberedFolder
	for _, name := range folders.Names() {
		if len(name) < 3 || (name[0] != 'a' && name[0] != 'A') {
			continue
		}
		prefix, _, ok := strings.Cut(name[1:], "_")
		if !ok || !isDigits(prefix) {
			continue
		}
		matches = append(matches, numberedFolder{digits: strings.TrimLeft(prefix, "0"), name: name})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if len(a.digits) != len(b.digits) {
			return len(a.digits) < len(b.digits)
		}
		if a.digits != b.digits {
			return a.digits < b.digits
		}
		return a.name < b.name
	})

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}
