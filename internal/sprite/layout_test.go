package sprite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spritegg/internal/config"
)

func weaponProfile() config.Profile {
	return config.DefaultConfig().Profiles[config.TypeWeapon]
}

func TestListFrames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.PNG", "c.txt", "d.png.bak"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "e.png"), 0755))

	frames, err := ListFrames(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range frames {
		names = append(names, filepath.Base(f.Path))
	}
	assert.Equal(t, []string{"a.PNG", "b.png"}, names)

	_, err = ListFrames(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestPlan_WeaponSword(t *testing.T) {
	root := t.TempDir()
	entity := filepath.Join(root, "W_Sword")
	idle := writeFrames(t, filepath.Join(entity, "Idle"), 36)
	writeFrames(t, filepath.Join(entity, "Walk"), 36)
	writeFrames(t, filepath.Join(entity, "Attack"), 36)

	folders, err := ReadFolderSet(entity)
	require.NoError(t, err)
	profile := weaponProfile()
	entries, err := ResolveActions(ResolveInput{
		EntityName:     "W_Sword",
		Folders:        folders,
		Actions:        profile.Actions,
		AttackPriority: defaultPriority,
	})
	require.NoError(t, err)

	grid, _, err := Plan(entity, entries, storageOrder, profile)
	require.NoError(t, err)

	assert.Equal(t, 12, grid.RowCount())
	assert.Equal(t, 9, grid.Columns)

	// Rows follow [down, left, up, right]; storage is [down, right, up, left].
	var dirs []string
	for _, row := range grid.Rows[:4] {
		dirs = append(dirs, row.Direction)
	}
	assert.Equal(t, []string{"down", "left", "up", "right"}, dirs)
	if diff := cmp.Diff(idle[27:36], grid.Rows[1].Frames); diff != "" {
		t.Errorf("left row should be the fourth chunk (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(idle[9:18], grid.Rows[3].Frames); diff != "" {
		t.Errorf("right row should be the second chunk (-want +got):\n%s", diff)
	}

	name, err := OutputName("W_Sword")
	require.NoError(t, err)
	assert.Equal(t, "sword.png", name)
}

func TestPlan_NPCAutomatic(t *testing.T) {
	entity := filepath.Join(t.TempDir(), "NPC_Merchant")
	writeFrames(t, filepath.Join(entity, "Idle"), 4*13)

	profile := config.DefaultConfig().Profiles[config.TypeNPC]
	entries := []ActionEntry{{Action: "idle", Folder: "Idle", FramesKey: "idle"}}

	grid, _, err := Plan(entity, entries, storageOrder, profile)
	require.NoError(t, err)
	assert.Equal(t, 4, grid.RowCount())
	assert.Equal(t, 13, grid.Columns)
	for _, row := range grid.Rows {
		assert.Len(t, row.Frames, 13)
	}

	name, err := OutputName("NPC_Merchant")
	require.NoError(t, err)
	assert.Equal(t, "merchant.png", name)
}

func TestPlan_UnevenRowsAndPadding(t *testing.T) {
	entity := t.TempDir()
	writeFrames(t, filepath.Join(entity, "idle"), 8)
	writeFrames(t, filepath.Join(entity, "attack"), 20)

	profile := config.Profile{
		Actions:           []string{"idle", "attack"},
		RowDirectionOrder: []string{"down", "up"},
		FramesPerView:     map[string]config.FramesPerView{"attack": config.FramesPerViewExplicit(3)},
	}
	entries := []ActionEntry{
		{Action: "idle", Folder: "idle", FramesKey: "idle"},
		{Action: "attack", Folder: "attack", FramesKey: "attack"},
	}

	grid, _, err := Plan(entity, entries, storageOrder, profile)
	require.NoError(t, err)
	assert.Equal(t, 4, grid.RowCount())
	assert.Equal(t, 3, grid.Columns)
	assert.Len(t, grid.Rows[0].Frames, 2, "rows are never padded by the planner")

	padded := grid.PaddedRow(0, "blank.png")
	assert.Equal(t, "blank.png", padded[2])
	cells := grid.Cells("blank.png")
	assert.Len(t, cells, 12)
	assert.Len(t, grid.Sources(), 2+2+3+3)
}

func TestPlan_Errors(t *testing.T) {
	tests := []struct {
		name    string
		files   int
		order   []string
		profile config.Profile
		wantErr error
	}{
		{"not divisible", 37, storageOrder, weaponProfile(), ErrFrameCountMismatch},
		{"empty input order", 36, nil, weaponProfile(), ErrFrameCountMismatch},
		{"insufficient", 32, storageOrder, weaponProfile(), ErrInsufficientFrames},
		{"missing direction", 18, []string{"down", "up"}, weaponProfile(), ErrMissingDirection},
		{"empty folder", 0, storageOrder, weaponProfile(), ErrEmptyFolder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity := t.TempDir()
			require.NoError(t, os.MkdirAll(filepath.Join(entity, "Attack"), 0755))
			writeFrames(t, filepath.Join(entity, "Attack"), tt.files)
			entries := []ActionEntry{{Action: "attack", Folder: "Attack", FramesKey: "attack"}}

			_, _, err := Plan(entity, entries, tt.order, tt.profile)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestPlan_EmptyGrid(t *testing.T) {
	_, _, err := Plan(t.TempDir(), nil, storageOrder, weaponProfile())
	assert.ErrorIs(t, err, ErrEmptyGrid)

	entity := t.TempDir()
	writeFrames(t, filepath.Join(entity, "idle"), 4)
	profile := config.Profile{Actions: []string{"idle"}}
	_, _, err = Plan(entity, []ActionEntry{{Action: "idle", Folder: "idle", FramesKey: "idle"}}, storageOrder, profile)
	assert.ErrorIs(t, err, ErrEmptyGrid)
}

func TestPlan_NewestModTime(t *testing.T) {
	entity := t.TempDir()
	idle := writeFrames(t, filepath.Join(entity, "idle"), 4)
	walk := writeFrames(t, filepath.Join(entity, "walk"), 4)

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for _, p := range append(idle, walk...) {
		touch(t, p, base)
	}
	newest := base.Add(10 * time.Minute)
	touch(t, walk[2], newest)

	profile := config.Profile{Actions: []string{"idle", "walk"}, RowDirectionOrder: []string{"down"}}
	entries := []ActionEntry{
		{Action: "idle", Folder: "idle", FramesKey: "idle"},
		{Action: "walk", Folder: "walk", FramesKey: "walk"},
	}
	_, got, err := Plan(entity, entries, storageOrder, profile)
	require.NoError(t, err)
	assert.True(t, got.Equal(newest), "newest = %s, want %s", got, newest)
}

func TestPlan_RowLengthBound(t *testing.T) {
	for _, k := range []int{4, 8, 12, 40} {
		entity := t.TempDir()
		writeFrames(t, filepath.Join(entity, "idle"), k)
		profile := config.Profile{Actions: []string{"idle"}, RowDirectionOrder: storageOrder}

		grid, _, err := Plan(entity, []ActionEntry{{Action: "idle", Folder: "idle", FramesKey: "idle"}}, storageOrder, profile)
		require.NoError(t, err)
		assert.Equal(t, len(profile.RowDirectionOrder), grid.RowCount())
		for _, row := range grid.Rows {
			assert.LessOrEqual(t, len(row.Frames), k/len(storageOrder))
		}
	}
}
