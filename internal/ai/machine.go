package ai

import (
	"fmt"
	"math"

	"github.com/l1jgo/shipcore/internal/component"
	"github.com/l1jgo/shipcore/internal/core/ecs"
	"github.com/l1jgo/shipcore/internal/geom"
)

// DefaultStepLimit bounds the jumps one routine execution may take.
const DefaultStepLimit = 10

// Access is the set of components the machine reads and writes. It lets the
// machine run against any object layout.
type Access[T any] struct {
	Transform ecs.Accessor[T, component.Transform]
	Guns      ecs.Accessor[T, []component.Gun]
	Engines   ecs.Accessor[T, []component.Engine]
	Brain     ecs.Accessor[T, Brain]
	TurnRate  ecs.Accessor[T, float64]
}

// Machine executes routines from a Library.
type Machine[T any] struct {
	lib       *Library
	acc       Access[T]
	stepLimit int
	epsilon   float64
}

type Option func(*options)

type options struct {
	stepLimit int
	epsilon   float64
}

// WithStepLimit overrides DefaultStepLimit.
func WithStepLimit(n int) Option {
	return func(o *options) { o.stepLimit = n }
}

// WithEpsilon sets the angle below which RotateTowards snaps.
func WithEpsilon(eps float64) Option {
	return func(o *options) { o.epsilon = eps }
}

func NewMachine[T any](lib *Library, acc Access[T], opts ...Option) *Machine[T] {
	o := options{stepLimit: DefaultStepLimit, epsilon: geom.Epsilon}
	for _, fn := range opts {
		fn(&o)
	}
	return &Machine[T]{lib: lib, acc: acc, stepLimit: o.stepLimit, epsilon: o.epsilon}
}

func (m *Machine[T]) Library() *Library { return m.lib }

// Think runs self's current routine once against target. dt is the tick
// length in seconds. Commands mutate through obs as they run.
//
// A ship that is not thinking is left alone. On error the ship's state is
// whatever the commands before the failure made it; the caller decides
// whether to disable the brain.
func (m *Machine[T]) Think(obs *ecs.Observation[T], self, target ecs.EntityID, dt float64) error {
	v, ok := obs.Get(self)
	if !ok {
		return &ecs.AccessError{ID: self}
	}
	brain := *m.acc.Brain(v)
	if !brain.Thinking() {
		return nil
	}
	routine, ok := m.lib.Routine(brain.Routine)
	if !ok {
		return fmt.Errorf("think %s: %w: id %d", self, ErrUnknownRoutine, brain.Routine)
	}

	cur := CommandID(0)
	for steps := 0; ; {
		if cur < 0 || int(cur) >= len(routine.Commands) {
			return &RoutineError{Routine: routine.Name, Command: cur, Op: OpNoop,
				Err: fmt.Errorf("%w: command %d outside routine", ErrInvalidCommand, cur)}
		}
		cmd := routine.Commands[cur]
		if cmd.Op == OpEnd {
			obs.Mutate(self, func(v *T) {
				*m.acc.Brain(v) = NewBrain(cmd.Routine)
			})
			return nil
		}
		// The over-budget command is rejected before it touches the ship.
		if steps >= m.stepLimit {
			return &RoutineError{Routine: routine.Name, Command: cur, Op: cmd.Op,
				Err: fmt.Errorf("%w: %d jumps", ErrTimeLimit, m.stepLimit)}
		}
		next, err := m.run(obs, cmd, self, target, dt)
		if err != nil {
			return &RoutineError{Routine: routine.Name, Command: cur, Op: cmd.Op, Err: err}
		}
		steps++
		cur = next
	}
}

// run executes one non-terminal command and returns where to go next.
func (m *Machine[T]) run(obs *ecs.Observation[T], cmd Command, self, target ecs.EntityID, dt float64) (CommandID, error) {
	var toTarget geom.Vec2
	if cmd.Op.NeedsTarget() {
		var err error
		if toTarget, err = m.vectorTo(obs, self, target); err != nil {
			return 0, err
		}
	}

	switch cmd.Op {
	case OpNoop:
		return cmd.Next, nil

	case OpIsTargetClose:
		if toTarget.Len() <= cmd.Distance {
			return cmd.Next, nil
		}
		return cmd.Else, nil

	case OpCanSeeTarget:
		v, _ := obs.Get(self)
		heading := m.acc.Transform(v).Heading()
		if toTarget.Len() < m.epsilon || math.Abs(geom.SignedAngle(heading, toTarget)) <= cmd.Angle {
			return cmd.Next, nil
		}
		return cmd.Else, nil

	case OpRotateTowards:
		obs.Mutate(self, func(v *T) {
			m.rotateTowards(m.acc.Transform(v), *m.acc.TurnRate(v)*dt, toTarget)
		})
		return cmd.Next, nil

	case OpShoot:
		var err error
		obs.Mutate(self, func(v *T) {
			guns := *m.acc.Guns(v)
			if cmd.Gun >= len(guns) {
				err = fmt.Errorf("%w: slot %d of %d", ErrGunNotPresent, cmd.Gun, len(guns))
				return
			}
			guns[cmd.Gun].Fire()
		})
		return cmd.Next, err

	case OpIncreaseSpeed, OpDecreaseSpeed:
		var err error
		obs.Mutate(self, func(v *T) {
			engines := *m.acc.Engines(v)
			if cmd.Engine >= len(engines) {
				err = fmt.Errorf("%w: slot %d of %d", ErrEngineNotPresent, cmd.Engine, len(engines))
				return
			}
			if cmd.Op == OpIncreaseSpeed {
				engines[cmd.Engine].Increase()
			} else {
				engines[cmd.Engine].Decrease()
			}
		})
		return cmd.Next, err
	}
	return 0, fmt.Errorf("%w: op %q", ErrInvalidCommand, cmd.Op)
}

func (m *Machine[T]) vectorTo(obs *ecs.Observation[T], self, target ecs.EntityID) (geom.Vec2, error) {
	if target == self {
		return geom.Vec2{}, ErrTriedToTargetSelf
	}
	tv, ok := obs.Get(target)
	if !ok {
		return geom.Vec2{}, fmt.Errorf("%w: %s", ErrTargetOutOfRange, target)
	}
	sv, _ := obs.Get(self)
	return m.acc.Transform(tv).Position.Sub(m.acc.Transform(sv).Position), nil
}

// rotateTowards turns t by at most maxStep toward dir. When the remaining
// angle fits in one step, or is below epsilon, it lands exactly on dir.
func (m *Machine[T]) rotateTowards(t *component.Transform, maxStep float64, dir geom.Vec2) {
	if dir.Len() < m.epsilon {
		return
	}
	angle := geom.SignedAngle(t.Heading(), dir)
	if math.Abs(angle) <= math.Max(m.epsilon, maxStep) {
		t.Rotation = geom.RotationOf(dir)
		return
	}
	t.Rotation = geom.NormalizeAngle(t.Rotation + math.Copysign(maxStep, angle))
}
