package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/l1jgo/shipcore/internal/ai"
	"github.com/l1jgo/shipcore/internal/component"
	"github.com/l1jgo/shipcore/internal/geom"
	"github.com/l1jgo/shipcore/internal/spatial"
	"github.com/l1jgo/shipcore/internal/world"
)

const yamlDir = "../../data/yaml"

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadShippedTables(t *testing.T) {
	lib, err := LoadRoutineLibrary(filepath.Join(yamlDir, "routine_list.yaml"))
	require.NoError(t, err)
	assert.Contains(t, lib.Names(), "broadside")

	table, err := LoadArchetypeTable(filepath.Join(yamlDir, "ship_list.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 6, table.Count())
	for _, name := range table.Names() {
		_, err := table.Blueprint(name, lib)
		assert.NoError(t, err, "archetype %s", name)
	}

	sc, err := LoadScenario(filepath.Join(yamlDir, "scenario.yaml"))
	require.NoError(t, err)
	st, err := world.NewState(spatial.Config{CellSize: 16, HalfSide: 16})
	require.NoError(t, err)
	n, err := sc.Populate(st, table, lib, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1+3+1+2+1+4, n)
	assert.Equal(t, n, st.Storage().Len())
	assert.Equal(t, 1, st.Attachments.Len())
}

func TestBlueprintFromTemplate(t *testing.T) {
	lib := ai.DefaultLibrary()
	table := DefaultArchetypes()

	bp, err := table.Blueprint("turret", lib)
	require.NoError(t, err)
	assert.Equal(t, component.KindTurret, bp.Kind)
	assert.Equal(t, lib.MustLookup("turret"), bp.Routine)
	require.Len(t, bp.Guns, 1)
	assert.True(t, bp.Guns[0].Homing)
	assert.Empty(t, bp.Engines)

	rock, err := table.Blueprint("asteroid", lib)
	require.NoError(t, err)
	assert.Equal(t, ai.NoRoutine, rock.Routine)

	_, err = table.Blueprint("carrier", lib)
	assert.Error(t, err)
	assert.Nil(t, table.Get("carrier"))
}

func TestBlueprintUnknownRoutine(t *testing.T) {
	path := writeFile(t, "ships.yaml", `
ships:
  - name: odd
    kind: drone
    hp: 1
    routine: dance
`)
	table, err := LoadArchetypeTable(path)
	require.NoError(t, err)
	_, err = table.Blueprint("odd", ai.DefaultLibrary())
	assert.ErrorIs(t, err, ai.ErrUnknownRoutine)
}

func TestLoadArchetypeTableRejectsBadRows(t *testing.T) {
	for name, body := range map[string]string{
		"bad kind":  "ships:\n  - { name: a, kind: dreadnought, hp: 1 }\n",
		"no hp":     "ships:\n  - { name: a, kind: drone }\n",
		"duplicate": "ships:\n  - { name: a, kind: drone, hp: 1 }\n  - { name: a, kind: drone, hp: 1 }\n",
		"no name":   "ships:\n  - { kind: drone, hp: 1 }\n",
		"not yaml":  "ships: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadArchetypeTable(writeFile(t, "ships.yaml", body))
			assert.Error(t, err)
		})
	}
	_, err := LoadArchetypeTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRoutineSpecsYAMLRoundTrip(t *testing.T) {
	out, err := MarshalRoutineSpecs(ai.DefaultSpecs())
	require.NoError(t, err)
	specs, err := LoadRoutineSpecs(writeFile(t, "routines.yaml", string(out)))
	require.NoError(t, err)
	assert.Equal(t, ai.DefaultSpecs(), specs)
}

func TestScenarioErrors(t *testing.T) {
	lib := ai.DefaultLibrary()
	table := DefaultArchetypes()
	newState := func() *world.State {
		st, err := world.NewState(spatial.Config{CellSize: 10, HalfSide: 10})
		require.NoError(t, err)
		return st
	}
	log := zaptest.NewLogger(t)

	bad := &Scenario{
		Player: PlayerEntry{Archetype: "player"},
		Spawns: []SpawnEntry{{Archetype: "turret", AttachTo: "ghost"}},
	}
	_, err := bad.Populate(newState(), table, lib, log)
	assert.Error(t, err)

	far := &Scenario{
		Player: PlayerEntry{Archetype: "player"},
		Spawns: []SpawnEntry{{Archetype: "drone", Team: "hostile", Position: geom.V(1e5, 0)}},
	}
	_, err = far.Populate(newState(), table, lib, log)
	assert.ErrorIs(t, err, spatial.ErrOutOfBounds)

	team := &Scenario{
		Player: PlayerEntry{Archetype: "player"},
		Spawns: []SpawnEntry{{Archetype: "drone", Team: "pirates"}},
	}
	_, err = team.Populate(newState(), table, lib, log)
	assert.Error(t, err)
}

func TestDefaultScenarioPopulates(t *testing.T) {
	st, err := world.NewState(spatial.Config{CellSize: 16, HalfSide: 8})
	require.NoError(t, err)
	n, err := DefaultScenario().Populate(st, DefaultArchetypes(), ai.DefaultLibrary(), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1+3+2+1+4, n)

	id, p := st.MustPlayer()
	assert.Equal(t, uint32(0), id.Index())
	assert.Equal(t, component.KindPlayer, p.Kind)
}
