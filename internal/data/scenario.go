package data

import (
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/l1jgo/shipcore/internal/ai"
	"github.com/l1jgo/shipcore/internal/component"
	"github.com/l1jgo/shipcore/internal/core/ecs"
	"github.com/l1jgo/shipcore/internal/geom"
	"github.com/l1jgo/shipcore/internal/world"
)

// SpawnEntry places Count ships of one archetype, each Spacing apart.
// Ships of an entry with AttachTo ride on the first ship of the entry with
// that ID.
type SpawnEntry struct {
	ID          string    `yaml:"id"`
	Archetype   string    `yaml:"archetype"`
	Team        string    `yaml:"team"`
	Position    geom.Vec2 `yaml:"position"`
	RotationDeg float64   `yaml:"rotation_deg"`
	Count       int       `yaml:"count"`
	Spacing     geom.Vec2 `yaml:"spacing"`
	AttachTo    string    `yaml:"attach_to"`
	Offset      geom.Vec2 `yaml:"offset"`
}

type PlayerEntry struct {
	Archetype string    `yaml:"archetype"`
	Position  geom.Vec2 `yaml:"position"`
}

// Scenario is the initial population of the world.
type Scenario struct {
	Player PlayerEntry  `yaml:"player"`
	Spawns []SpawnEntry `yaml:"spawns"`
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if sc.Player.Archetype == "" {
		sc.Player.Archetype = "player"
	}
	return &sc, nil
}

// DefaultScenario is a small skirmish around the origin.
func DefaultScenario() *Scenario {
	return &Scenario{
		Player: PlayerEntry{Archetype: "player"},
		Spawns: []SpawnEntry{
			{ID: "wing", Archetype: "fighter", Team: "hostile", Position: geom.V(-30, 60), RotationDeg: 180, Count: 3, Spacing: geom.V(15, 0)},
			{ID: "rock", Archetype: "asteroid", Team: "neutral", Position: geom.V(40, 20), Count: 2, Spacing: geom.V(0, 25)},
			{ID: "mount", Archetype: "turret", Team: "hostile", AttachTo: "rock", Offset: geom.V(0, 3.5)},
			{ID: "swarm", Archetype: "drone", Team: "hostile", Position: geom.V(-60, -40), Count: 4, Spacing: geom.V(4, 4)},
		},
	}
}

// ParseTeam maps a scenario team name to its Team.
func ParseTeam(name string) (component.Team, error) {
	switch name {
	case "", "neutral":
		return component.TeamNeutral, nil
	case "player":
		return component.TeamPlayer, nil
	case "hostile":
		return component.TeamHostile, nil
	}
	return 0, fmt.Errorf("unknown team %q", name)
}

// Populate spawns the player and every entry into st. It returns the number
// of ships spawned, player included.
func (sc *Scenario) Populate(st *world.State, table *ArchetypeTable, lib *ai.Library, log *zap.Logger) (int, error) {
	bp, err := table.Blueprint(sc.Player.Archetype, lib)
	if err != nil {
		return 0, fmt.Errorf("scenario player: %w", err)
	}
	if _, err := st.SpawnPlayer(bp, sc.Player.Position); err != nil {
		return 0, fmt.Errorf("scenario player: %w", err)
	}
	spawned := 1

	leaders := make(map[string]ecs.EntityID, len(sc.Spawns))
	for i, e := range sc.Spawns {
		bp, err := table.Blueprint(e.Archetype, lib)
		if err != nil {
			return spawned, fmt.Errorf("scenario spawn %d: %w", i, err)
		}
		team, err := ParseTeam(e.Team)
		if err != nil {
			return spawned, fmt.Errorf("scenario spawn %d: %w", i, err)
		}
		parent := ecs.Nil
		if e.AttachTo != "" {
			p, ok := leaders[e.AttachTo]
			if !ok {
				return spawned, fmt.Errorf("scenario spawn %d: attach_to %q names no earlier entry", i, e.AttachTo)
			}
			parent = p
		}
		count := e.Count
		if count <= 0 {
			count = 1
		}
		rot := e.RotationDeg * math.Pi / 180
		for n := 0; n < count; n++ {
			pos := e.Position.Add(e.Spacing.Scale(float64(n)))
			if parent != ecs.Nil {
				pv, _ := st.Storage().Get(parent)
				pos = pv.Transform.Position
			}
			id, err := st.Spawn(bp, team, pos, rot)
			if err != nil {
				return spawned, fmt.Errorf("scenario spawn %d: %w", i, err)
			}
			spawned++
			if n == 0 && e.ID != "" {
				leaders[e.ID] = id
			}
			if parent != ecs.Nil {
				if err := st.Attach(id, parent, e.Offset, 0); err != nil {
					return spawned, fmt.Errorf("scenario spawn %d: %w", i, err)
				}
			}
		}
		log.Debug("scenario entry spawned",
			zap.String("archetype", e.Archetype),
			zap.String("team", e.Team),
			zap.Int("count", count),
		)
	}
	return spawned, nil
}
