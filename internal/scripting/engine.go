// Package scripting loads AI routine libraries authored in Lua.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/shipcore/internal/ai"
)

// APIVersion is exposed to scripts as API_VERSION.
const APIVersion = 1

// Engine wraps a single gopher-lua VM. Scripts call routine{...} to declare
// routines; the engine collects them in load order.
// Single-goroutine access only.
type Engine struct {
	vm       *lua.LState
	log      *zap.Logger
	routines []ai.RoutineSpec
	sources  map[string]string // routine name -> file that declared it
	loading  string
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
// Files in core/ load first, then ai/.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{vm: vm, log: log, sources: make(map[string]string)}
	vm.SetGlobal("routine", vm.NewFunction(e.luaRoutine))

	for _, sub := range []string{"core", "ai"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.LoadFile(path); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile runs one script.
func (e *Engine) LoadFile(path string) error {
	e.loading = path
	defer func() { e.loading = "" }()
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return nil
}

// LoadString runs a script held in memory.
func (e *Engine) LoadString(name, src string) error {
	e.loading = name
	defer func() { e.loading = "" }()
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	return nil
}

// Routines returns the routines declared so far.
func (e *Engine) Routines() []ai.RoutineSpec {
	out := make([]ai.RoutineSpec, len(e.routines))
	copy(out, e.routines)
	return out
}

// Library compiles the declared routines.
func (e *Engine) Library() (*ai.Library, error) {
	lib, err := ai.Compile(e.routines)
	if err != nil {
		return nil, fmt.Errorf("lua routines: %w", err)
	}
	return lib, nil
}

// luaRoutine implements routine{ name = "...", commands = { {...}, ... } }.
func (e *Engine) luaRoutine(L *lua.LState) int {
	t := L.CheckTable(1)
	name := lStr(t, "name")
	if name == "" {
		L.ArgError(1, "routine needs a name")
		return 0
	}
	if prev, dup := e.sources[name]; dup {
		L.RaiseError("routine %q already declared in %s", name, prev)
		return 0
	}
	cmds, ok := t.RawGetString("commands").(*lua.LTable)
	if !ok {
		L.ArgError(1, fmt.Sprintf("routine %q needs a commands list", name))
		return 0
	}

	spec := ai.RoutineSpec{Name: name}
	for i := 1; i <= cmds.Len(); i++ {
		row, ok := cmds.RawGetInt(i).(*lua.LTable)
		if !ok {
			L.ArgError(1, fmt.Sprintf("routine %q command %d is not a table", name, i))
			return 0
		}
		op := ai.Op(lStr(row, "op"))
		if !op.Valid() {
			L.ArgError(1, fmt.Sprintf("routine %q command %d: unknown op %q", name, i, op))
			return 0
		}
		alt := lStr(row, "else")
		if alt == "" {
			alt = lStr(row, "otherwise")
		}
		spec.Commands = append(spec.Commands, ai.CommandSpec{
			Label:    lStr(row, "label"),
			Op:       op,
			Next:     lStr(row, "next"),
			Else:     alt,
			Routine:  lStr(row, "routine"),
			Gun:      lInt(row, "gun"),
			Engine:   lInt(row, "engine"),
			Distance: lNum(row, "distance"),
			AngleDeg: lNum(row, "angle_deg"),
		})
	}
	e.routines = append(e.routines, spec)
	e.sources[name] = e.loading
	e.log.Debug("lua routine declared", zap.String("routine", name), zap.Int("commands", len(spec.Commands)))
	return 0
}

// LoadRoutines loads every script under scriptsDir and compiles the
// declared routines.
func LoadRoutines(scriptsDir string, log *zap.Logger) (*ai.Library, error) {
	e, err := NewEngine(scriptsDir, log)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	return e.Library()
}

// --- Lua helpers ---

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// lNum reads a number field from a Lua table.
func lNum(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
