// Package ai drives non-player ships. A ship's Brain names the routine it is
// running; each tick the Machine walks that routine's command graph from the
// first command until an End command or the step limit.
package ai

import "fmt"

// RoutineID indexes Library.Routines.
type RoutineID int

// CommandID indexes Routine.Commands.
type CommandID int

// NoRoutine marks a ship that does not think.
const NoRoutine RoutineID = -1

// Op selects what a Command does.
type Op string

const (
	OpEnd           Op = "end"             // finish; Routine runs next tick
	OpNoop          Op = "noop"            // go to Next
	OpIsTargetClose Op = "is_target_close" // Next if within Distance, else Else
	OpCanSeeTarget  Op = "can_see_target"  // Next if within Angle of heading, else Else
	OpRotateTowards Op = "rotate_towards"  // turn toward the target, go to Next
	OpShoot         Op = "shoot"           // fire Gun, go to Next
	OpIncreaseSpeed Op = "increase_speed"  // raise Engine level, go to Next
	OpDecreaseSpeed Op = "decrease_speed"  // lower Engine level, go to Next
)

var ops = map[Op]bool{
	OpEnd: true, OpNoop: true, OpIsTargetClose: true, OpCanSeeTarget: true,
	OpRotateTowards: true, OpShoot: true, OpIncreaseSpeed: true, OpDecreaseSpeed: true,
}

// Branches reports whether the op chooses between Next and Else.
func (o Op) Branches() bool { return o == OpIsTargetClose || o == OpCanSeeTarget }

// NeedsTarget reports whether the op reads the target ship.
func (o Op) NeedsTarget() bool { return o.Branches() || o == OpRotateTowards }

func (o Op) Valid() bool { return ops[o] }

// Command is one node of a routine graph. Only the fields its Op uses are
// meaningful.
type Command struct {
	Op       Op        `json:"op" msgpack:"op"`
	Next     CommandID `json:"next,omitempty" msgpack:"next,omitempty"`
	Else     CommandID `json:"else,omitempty" msgpack:"else,omitempty"`
	Routine  RoutineID `json:"routine,omitempty" msgpack:"routine,omitempty"`
	Gun      int       `json:"gun,omitempty" msgpack:"gun,omitempty"`
	Engine   int       `json:"engine,omitempty" msgpack:"engine,omitempty"`
	Distance float64   `json:"distance,omitempty" msgpack:"distance,omitempty"`
	Angle    float64   `json:"angle,omitempty" msgpack:"angle,omitempty"` // half-width of the view cone, radians
}

func (c Command) String() string {
	switch c.Op {
	case OpEnd:
		return fmt.Sprintf("end(%d)", c.Routine)
	case OpIsTargetClose:
		return fmt.Sprintf("is_target_close(%.2f ? %d : %d)", c.Distance, c.Next, c.Else)
	case OpCanSeeTarget:
		return fmt.Sprintf("can_see_target(%.3f ? %d : %d)", c.Angle, c.Next, c.Else)
	case OpShoot:
		return fmt.Sprintf("shoot(%d) -> %d", c.Gun, c.Next)
	case OpIncreaseSpeed, OpDecreaseSpeed:
		return fmt.Sprintf("%s(%d) -> %d", c.Op, c.Engine, c.Next)
	}
	return fmt.Sprintf("%s -> %d", c.Op, c.Next)
}

// Routine is an immutable command graph. Execution starts at command 0.
type Routine struct {
	Name     string    `json:"name" msgpack:"name"`
	Commands []Command `json:"commands" msgpack:"commands"`
}

// Brain is the per-ship AI state. The zero value does not think.
type Brain struct {
	Routine RoutineID
	Active  bool
}

func NewBrain(r RoutineID) Brain { return Brain{Routine: r, Active: r != NoRoutine} }

func (b Brain) Thinking() bool { return b.Active && b.Routine != NoRoutine }

// Disable stops the ship from thinking until a routine is assigned again.
func (b *Brain) Disable() {
	b.Routine = NoRoutine
	b.Active = false
}
