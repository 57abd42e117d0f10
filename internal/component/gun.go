package component

import "github.com/l1jgo/shipcore/internal/geom"

// Gun is one weapon slot. Fire only arms the gun; WeaponSystem spawns the
// bullet and clears Triggered on its next pass.
type Gun struct {
	Offset      geom.Vec2 // muzzle position in ship space
	Cooldown    float64   // seconds between shots
	Timer       float64   // recoil time remaining
	Damage      int32
	BulletSpeed float64
	Lifetime    float64
	Homing      bool
	TurnRate    float64 // homing steering, radians per second
	Range       float64 // homing acquisition range
	Triggered   bool
}

func (g *Gun) Ready() bool { return g.Timer <= 0 }

// Fire starts the recoil timer and queues a shot. It reports false while the
// gun is still recoiling.
func (g *Gun) Fire() bool {
	if !g.Ready() {
		return false
	}
	g.Timer = g.Cooldown
	g.Triggered = true
	return true
}

func (g *Gun) Tick(dt float64) {
	g.Timer -= dt
	if g.Timer < 0 {
		g.Timer = 0
	}
}

// Engine is one propulsion slot with discrete power levels.
type Engine struct {
	Level    int
	MaxLevel int
	Thrust   float64 // force at full level
}

func (e *Engine) Increase() bool {
	if e.Level >= e.MaxLevel {
		return false
	}
	e.Level++
	return true
}

func (e *Engine) Decrease() bool {
	if e.Level <= 0 {
		return false
	}
	e.Level--
	return true
}

// Throttle is the current level as a fraction of MaxLevel.
func (e Engine) Throttle() float64 {
	if e.MaxLevel <= 0 {
		return 0
	}
	return float64(e.Level) / float64(e.MaxLevel)
}

// Force is the thrust the engine currently produces.
func (e Engine) Force() float64 { return e.Thrust * e.Throttle() }
