package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"spritegg/internal/sprite"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu    sync.Mutex
	built []string
}

func (r *recorder) build(ctx context.Context, e sprite.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.built = append(r.built, e.Name)
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.built...)
}

func startWatcher(t *testing.T, root string, build BuildFunc) *Watcher {
	t.Helper()
	w, err := New(root, build)
	require.NoError(t, err)
	w.SetDebounce(50 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_RebuildsEntityOnFrameChange(t *testing.T) {
	root := t.TempDir()
	idle := filepath.Join(root, "W_Sword", "Idle")
	require.NoError(t, os.MkdirAll(idle, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0755))

	rec := &recorder{}
	w := startWatcher(t, root, rec.build)

	dirs := w.WatchedDirs()
	assert.Contains(t, dirs, idle)
	assert.NotContains(t, dirs, filepath.Join(root, ".git"))

	// Several quick writes settle into one rebuild.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(idle, "f000.png"), []byte{byte(i)}, 0644))
	}

	assert.Eventually(t, func() bool { return len(rec.names()) == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, []string{"W_Sword"}, rec.names())
	assert.Equal(t, 1, w.Stats().Builds)
}

func TestWatcher_IgnoresSheetsAndOtherFiles(t *testing.T) {
	root := t.TempDir()
	entity := filepath.Join(root, "NPC_A")
	require.NoError(t, os.MkdirAll(filepath.Join(entity, "Idle"), 0755))

	rec := &recorder{}
	startWatcher(t, root, rec.build)

	require.NoError(t, os.WriteFile(filepath.Join(entity, "a.png"), []byte("sheet"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(entity, "Idle", "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(entity, "Idle", ".f.png"), []byte("x"), 0644))

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, rec.names())
}

func TestWatcher_PicksUpNewDirectories(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	startWatcher(t, root, rec.build)

	walk := filepath.Join(root, "E1_Bat", "Walk")
	require.NoError(t, os.Mkdir(filepath.Join(root, "E1_Bat"), 0755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.Mkdir(walk, 0755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(walk, "f000.png"), []byte("x"), 0644))

	assert.Eventually(t, func() bool {
		names := rec.names()
		return len(names) > 0 && names[len(names)-1] == "E1_Bat"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), (&recorder{}).build)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

func TestWatcher_StartFailsForMissingRoot(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing"), (&recorder{}).build)
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
	w.watcher.Close()
}
