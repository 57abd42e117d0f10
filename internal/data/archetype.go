package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/shipcore/internal/ai"
	"github.com/l1jgo/shipcore/internal/component"
	"github.com/l1jgo/shipcore/internal/geom"
	"github.com/l1jgo/shipcore/internal/world"
)

// GunTemplate is one weapon slot of a ship template.
type GunTemplate struct {
	Offset      geom.Vec2 `yaml:"offset"`
	Cooldown    float64   `yaml:"cooldown"`
	Damage      int32     `yaml:"damage"`
	BulletSpeed float64   `yaml:"bullet_speed"`
	Lifetime    float64   `yaml:"lifetime"`
	Homing      bool      `yaml:"homing"`
	TurnRate    float64   `yaml:"turn_rate"`
	Range       float64   `yaml:"range"`
}

// EngineTemplate is one propulsion slot of a ship template.
type EngineTemplate struct {
	MaxLevel int     `yaml:"max_level"`
	Thrust   float64 `yaml:"thrust"`
	Level    int     `yaml:"level"`
}

type SpriteTemplate struct {
	Name  string  `yaml:"name"`
	Layer int     `yaml:"layer"`
	Scale float64 `yaml:"scale"`
}

// ShipTemplate holds static data for a ship archetype loaded from YAML.
type ShipTemplate struct {
	Name     string           `yaml:"name"`
	Kind     string           `yaml:"kind"`
	HP       int32            `yaml:"hp"`
	Mass     float64          `yaml:"mass"`
	Drag     float64          `yaml:"drag"`
	TurnRate float64          `yaml:"turn_rate"`
	Radius   float64          `yaml:"radius"`
	Routine  string           `yaml:"routine"` // empty = no AI
	Sprite   SpriteTemplate   `yaml:"sprite"`
	Guns     []GunTemplate    `yaml:"guns"`
	Engines  []EngineTemplate `yaml:"engines"`
}

type shipListFile struct {
	Ships []ShipTemplate `yaml:"ships"`
}

// ArchetypeTable holds all ship templates indexed by name.
type ArchetypeTable struct {
	templates map[string]*ShipTemplate
}

// LoadArchetypeTable loads ship templates from a YAML file.
func LoadArchetypeTable(path string) (*ArchetypeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ship_list: %w", err)
	}
	var f shipListFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse ship_list: %w", err)
	}
	return newArchetypeTable(f.Ships)
}

func newArchetypeTable(ships []ShipTemplate) (*ArchetypeTable, error) {
	t := &ArchetypeTable{templates: make(map[string]*ShipTemplate, len(ships))}
	for i := range ships {
		s := &ships[i]
		if s.Name == "" {
			return nil, fmt.Errorf("ship_list entry %d: missing name", i)
		}
		if _, dup := t.templates[s.Name]; dup {
			return nil, fmt.Errorf("ship_list: duplicate ship %q", s.Name)
		}
		if _, err := component.ParseKind(s.Kind); err != nil {
			return nil, fmt.Errorf("ship_list %q: %w", s.Name, err)
		}
		if s.HP <= 0 {
			return nil, fmt.Errorf("ship_list %q: hp must be positive", s.Name)
		}
		t.templates[s.Name] = s
	}
	return t, nil
}

// Get returns a ship template by name, or nil if not found.
func (t *ArchetypeTable) Get(name string) *ShipTemplate {
	return t.templates[name]
}

// Count returns the number of loaded templates.
func (t *ArchetypeTable) Count() int {
	return len(t.templates)
}

// Names lists template names in sorted order.
func (t *ArchetypeTable) Names() []string {
	names := make([]string, 0, len(t.templates))
	for n := range t.templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Blueprint resolves a template against the routine library.
func (t *ArchetypeTable) Blueprint(name string, lib *ai.Library) (world.Blueprint, error) {
	s := t.templates[name]
	if s == nil {
		return world.Blueprint{}, fmt.Errorf("unknown archetype %q", name)
	}
	kind, err := component.ParseKind(s.Kind)
	if err != nil {
		return world.Blueprint{}, fmt.Errorf("archetype %q: %w", name, err)
	}
	routine := ai.NoRoutine
	if s.Routine != "" {
		id, ok := lib.Lookup(s.Routine)
		if !ok {
			return world.Blueprint{}, fmt.Errorf("archetype %q: %w: %q", name, ai.ErrUnknownRoutine, s.Routine)
		}
		routine = id
	}
	bp := world.Blueprint{
		Name:     s.Name,
		Kind:     kind,
		Mass:     s.Mass,
		Drag:     s.Drag,
		TurnRate: s.TurnRate,
		MaxHP:    s.HP,
		Radius:   s.Radius,
		Sprite:   component.Sprite{Name: s.Sprite.Name, Layer: s.Sprite.Layer, Scale: s.Sprite.Scale},
		Routine:  routine,
	}
	for _, g := range s.Guns {
		bp.Guns = append(bp.Guns, component.Gun{
			Offset:      g.Offset,
			Cooldown:    g.Cooldown,
			Damage:      g.Damage,
			BulletSpeed: g.BulletSpeed,
			Lifetime:    g.Lifetime,
			Homing:      g.Homing,
			TurnRate:    g.TurnRate,
			Range:       g.Range,
		})
	}
	for _, e := range s.Engines {
		bp.Engines = append(bp.Engines, component.Engine{Level: e.Level, MaxLevel: e.MaxLevel, Thrust: e.Thrust})
	}
	return bp, nil
}

// DefaultArchetypes is the built-in ship table used when no file is configured.
func DefaultArchetypes() *ArchetypeTable {
	t, err := newArchetypeTable([]ShipTemplate{
		{
			Name: "player", Kind: "player", HP: 30, Mass: 2, Drag: 0.5, TurnRate: 3, Radius: 1.5,
			Sprite:  SpriteTemplate{Name: "player", Layer: 1, Scale: 1},
			Guns:    []GunTemplate{{Offset: geom.V(0, 1.5), Cooldown: 0.25, Damage: 2, BulletSpeed: 70, Lifetime: 1.2}},
			Engines: []EngineTemplate{{MaxLevel: 4, Thrust: 60}},
		},
		{
			Name: "fighter", Kind: "fighter", HP: 8, Mass: 1.5, Drag: 0.5, TurnRate: 2.5, Radius: 1.2, Routine: "hunter",
			Sprite:  SpriteTemplate{Name: "fighter", Layer: 1, Scale: 1},
			Guns:    []GunTemplate{{Offset: geom.V(0, 1.2), Cooldown: 0.8, Damage: 1, BulletSpeed: 55, Lifetime: 1.2}},
			Engines: []EngineTemplate{{MaxLevel: 3, Thrust: 30}},
		},
		{
			Name: "turret", Kind: "turret", HP: 12, Mass: 4, TurnRate: 1.5, Radius: 1, Routine: "turret",
			Sprite: SpriteTemplate{Name: "turret", Layer: 2, Scale: 1},
			Guns: []GunTemplate{{
				Offset: geom.V(0, 1), Cooldown: 1.5, Damage: 3, BulletSpeed: 35, Lifetime: 2.5,
				Homing: true, TurnRate: 1.8, Range: 40,
			}},
		},
		{
			Name: "drone", Kind: "drone", HP: 3, Mass: 0.5, Drag: 0.3, TurnRate: 4, Radius: 0.8, Routine: "kamikaze",
			Sprite:  SpriteTemplate{Name: "drone", Layer: 1, Scale: 0.7},
			Engines: []EngineTemplate{{MaxLevel: 2, Thrust: 20}},
		},
		{
			Name: "asteroid", Kind: "asteroid", HP: 20, Mass: 10, Radius: 3,
			Sprite: SpriteTemplate{Name: "asteroid", Layer: 0, Scale: 2},
		},
	})
	if err != nil {
		panic("data: built-in archetypes invalid: " + err.Error())
	}
	return t
}
