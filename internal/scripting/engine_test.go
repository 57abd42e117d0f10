package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/l1jgo/shipcore/internal/ai"
)

const scriptsDir = "../../scripts"

func TestLoadShippedScripts(t *testing.T) {
	lib, err := LoadRoutines(scriptsDir, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"broadside", "hunter", "idle", "kamikaze", "turret"}, lib.Names())

	// The Lua and built-in hunters describe the same graph.
	builtin := ai.DefaultLibrary()
	want, _ := builtin.Routine(builtin.MustLookup("hunter"))
	got, _ := lib.Routine(lib.MustLookup("hunter"))
	require.Len(t, got.Commands, len(want.Commands))
	for i := range want.Commands {
		w, g := want.Commands[i], got.Commands[i]
		assert.Equal(t, w.Op, g.Op, "command %d", i)
		assert.Equal(t, w.Next, g.Next, "command %d", i)
		assert.Equal(t, w.Else, g.Else, "command %d", i)
		assert.InDelta(t, w.Angle, g.Angle, 1e-12, "command %d", i)
	}
}

func newBareEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestRoutineDeclaration(t *testing.T) {
	e := newBareEngine(t)
	require.NoError(t, e.LoadString("inline", `
		assert(API_VERSION == 1)
		routine {
		  name = "scout",
		  commands = {
		    { op = "is_target_close", distance = 4, ["else"] = "out" },
		    { op = "shoot", gun = 2 },
		    { label = "out", op = "end", routine = "scout" },
		  },
		}
	`))

	specs := e.Routines()
	require.Len(t, specs, 1)
	assert.Equal(t, ai.RoutineSpec{
		Name: "scout",
		Commands: []ai.CommandSpec{
			{Op: ai.OpIsTargetClose, Distance: 4, Else: "out"},
			{Op: ai.OpShoot, Gun: 2},
			{Label: "out", Op: ai.OpEnd, Routine: "scout"},
		},
	}, specs[0])

	lib, err := e.Library()
	require.NoError(t, err)
	assert.Equal(t, 1, lib.Len())
}

func TestRoutineDeclarationErrors(t *testing.T) {
	for name, src := range map[string]string{
		"no name":     `routine { commands = {} }`,
		"no commands": `routine { name = "x" }`,
		"bad op":      `routine { name = "x", commands = { { op = "warp" } } }`,
		"bad row":     `routine { name = "x", commands = { 7 } }`,
		"duplicate":   `routine { name = "x", commands = { { op = "end" } } } routine { name = "x", commands = { { op = "end" } } }`,
		"syntax":      `routine {`,
	} {
		t.Run(name, func(t *testing.T) {
			e := newBareEngine(t)
			assert.Error(t, e.LoadString(name, src))
		})
	}
}

func TestCompileErrorsSurface(t *testing.T) {
	e := newBareEngine(t)
	require.NoError(t, e.LoadString("dangling", `
		routine { name = "x", commands = { { op = "noop", next = "missing" }, { op = "end" } } }
	`))
	_, err := e.Library()
	assert.ErrorIs(t, err, ai.ErrInvalidCommand)
}

func TestBrokenScriptFailsLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ai"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ai", "bad.lua"), []byte("error('boom')"), 0o644))

	_, err := NewEngine(dir, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.lua")
}
