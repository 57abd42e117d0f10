package ai

import (
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/blake2b"
)

// RoutineSpec is the authored form of a routine: commands reference each
// other and other routines by name instead of index.
type RoutineSpec struct {
	Name     string        `yaml:"name" msgpack:"name"`
	Commands []CommandSpec `yaml:"commands" msgpack:"commands"`
}

// CommandSpec is one authored command. An empty Next falls through to the
// following command. An empty Routine on an end command restarts the
// enclosing routine.
type CommandSpec struct {
	Label    string  `yaml:"label,omitempty" msgpack:"label,omitempty"`
	Op       Op      `yaml:"op" msgpack:"op"`
	Next     string  `yaml:"next,omitempty" msgpack:"next,omitempty"`
	Else     string  `yaml:"else,omitempty" msgpack:"else,omitempty"`
	Routine  string  `yaml:"routine,omitempty" msgpack:"routine,omitempty"`
	Gun      int     `yaml:"gun,omitempty" msgpack:"gun,omitempty"`
	Engine   int     `yaml:"engine,omitempty" msgpack:"engine,omitempty"`
	Distance float64 `yaml:"distance,omitempty" msgpack:"distance,omitempty"`
	AngleDeg float64 `yaml:"angle_deg,omitempty" msgpack:"angle_deg,omitempty"`
}

// Library is the immutable set of routines loaded at startup.
type Library struct {
	Routines []Routine `msgpack:"routines"`
	byName   map[string]RoutineID
}

// Compile resolves names to indices and validates the result. Any broken
// reference is reported here so a running machine never meets one.
func Compile(specs []RoutineSpec) (*Library, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("compile: %w: empty library", ErrInvalidCommand)
	}
	byName := make(map[string]RoutineID, len(specs))
	for i, rs := range specs {
		if rs.Name == "" {
			return nil, fmt.Errorf("compile: routine %d: %w: missing name", i, ErrInvalidCommand)
		}
		if _, dup := byName[rs.Name]; dup {
			return nil, fmt.Errorf("compile: routine %q: %w: duplicate name", rs.Name, ErrInvalidCommand)
		}
		byName[rs.Name] = RoutineID(i)
	}

	lib := &Library{Routines: make([]Routine, len(specs)), byName: byName}
	for i, rs := range specs {
		r, err := compileRoutine(RoutineID(i), rs, byName)
		if err != nil {
			return nil, fmt.Errorf("compile: %w", err)
		}
		lib.Routines[i] = r
	}
	if err := lib.Validate(); err != nil {
		return nil, err
	}
	return lib, nil
}

func compileRoutine(self RoutineID, rs RoutineSpec, byName map[string]RoutineID) (Routine, error) {
	labels := make(map[string]CommandID, len(rs.Commands))
	for i, cs := range rs.Commands {
		if cs.Label == "" {
			continue
		}
		if _, dup := labels[cs.Label]; dup {
			return Routine{}, &RoutineError{Routine: rs.Name, Command: CommandID(i), Op: cs.Op,
				Err: fmt.Errorf("%w: duplicate label %q", ErrInvalidCommand, cs.Label)}
		}
		labels[cs.Label] = CommandID(i)
	}
	resolve := func(i int, ref string) (CommandID, error) {
		if ref == "" {
			return CommandID(i + 1), nil
		}
		id, ok := labels[ref]
		if !ok {
			return 0, fmt.Errorf("%w: no command labelled %q", ErrInvalidCommand, ref)
		}
		return id, nil
	}

	r := Routine{Name: rs.Name, Commands: make([]Command, len(rs.Commands))}
	for i, cs := range rs.Commands {
		fail := func(err error) (Routine, error) {
			return Routine{}, &RoutineError{Routine: rs.Name, Command: CommandID(i), Op: cs.Op, Err: err}
		}
		c := Command{
			Op:       cs.Op,
			Gun:      cs.Gun,
			Engine:   cs.Engine,
			Distance: cs.Distance,
			Angle:    cs.AngleDeg * math.Pi / 180,
		}
		if cs.Op == OpEnd {
			c.Routine = self
			if cs.Routine != "" {
				id, ok := byName[cs.Routine]
				if !ok {
					return fail(fmt.Errorf("%w: %q", ErrUnknownRoutine, cs.Routine))
				}
				c.Routine = id
			}
		} else {
			next, err := resolve(i, cs.Next)
			if err != nil {
				return fail(err)
			}
			c.Next = next
		}
		if cs.Op.Branches() {
			if cs.Else == "" {
				return fail(fmt.Errorf("%w: branch needs an else target", ErrInvalidCommand))
			}
			alt, err := resolve(i, cs.Else)
			if err != nil {
				return fail(err)
			}
			c.Else = alt
		}
		r.Commands[i] = c
	}
	return r, nil
}

// Validate checks every index in the library. Decoded libraries are
// validated before use.
func (l *Library) Validate() error {
	if len(l.Routines) == 0 {
		return fmt.Errorf("validate: %w: empty library", ErrInvalidCommand)
	}
	seen := make(map[string]bool, len(l.Routines))
	for _, r := range l.Routines {
		if seen[r.Name] {
			return fmt.Errorf("validate: routine %q: %w: duplicate name", r.Name, ErrInvalidCommand)
		}
		seen[r.Name] = true
		if err := l.validateRoutine(r); err != nil {
			return fmt.Errorf("validate: %w", err)
		}
	}
	return nil
}

func (l *Library) validateRoutine(r Routine) error {
	if len(r.Commands) == 0 {
		return &RoutineError{Routine: r.Name, Op: OpEnd, Err: fmt.Errorf("%w: routine has no commands", ErrInvalidCommand)}
	}
	n := CommandID(len(r.Commands))
	for i, c := range r.Commands {
		fail := func(format string, args ...any) error {
			return &RoutineError{Routine: r.Name, Command: CommandID(i), Op: c.Op,
				Err: fmt.Errorf("%w: "+format, append([]any{ErrInvalidCommand}, args...)...)}
		}
		if !c.Op.Valid() {
			return fail("unknown op")
		}
		if c.Op == OpEnd {
			if c.Routine < 0 || int(c.Routine) >= len(l.Routines) {
				return &RoutineError{Routine: r.Name, Command: CommandID(i), Op: c.Op,
					Err: fmt.Errorf("%w: id %d", ErrUnknownRoutine, c.Routine)}
			}
			continue
		}
		if c.Next < 0 || c.Next >= n {
			return fail("next %d outside 0..%d", c.Next, n-1)
		}
		if c.Op.Branches() && (c.Else < 0 || c.Else >= n) {
			return fail("else %d outside 0..%d", c.Else, n-1)
		}
		switch c.Op {
		case OpIsTargetClose:
			if !(c.Distance > 0) {
				return fail("distance must be positive")
			}
		case OpCanSeeTarget:
			if !(c.Angle > 0 && c.Angle <= math.Pi) {
				return fail("view angle must be in (0, 180] degrees")
			}
		case OpShoot:
			if c.Gun < 0 {
				return fail("negative gun slot")
			}
		case OpIncreaseSpeed, OpDecreaseSpeed:
			if c.Engine < 0 {
				return fail("negative engine slot")
			}
		}
	}
	return nil
}

func (l *Library) index() {
	l.byName = make(map[string]RoutineID, len(l.Routines))
	for i, r := range l.Routines {
		l.byName[r.Name] = RoutineID(i)
	}
}

// Lookup finds a routine by name.
func (l *Library) Lookup(name string) (RoutineID, bool) {
	id, ok := l.byName[name]
	return id, ok
}

// MustLookup is Lookup for names known to be present.
func (l *Library) MustLookup(name string) RoutineID {
	id, ok := l.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("ai: routine %q not in library", name))
	}
	return id
}

// Routine returns the routine with the given id.
func (l *Library) Routine(id RoutineID) (*Routine, bool) {
	if id < 0 || int(id) >= len(l.Routines) {
		return nil, false
	}
	return &l.Routines[id], true
}

func (l *Library) Len() int { return len(l.Routines) }

// Names lists routine names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.Routines))
	for _, r := range l.Routines {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

// Digest is the hex BLAKE2b-256 of the library's msgpack encoding. Two
// libraries with the same digest behave identically.
func (l *Library) Digest() (string, error) {
	b, err := EncodeLibrary(l)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Specs turns the library back into its authored form. Every command gets a
// label so references survive the round trip.
func (l *Library) Specs() []RoutineSpec {
	specs := make([]RoutineSpec, len(l.Routines))
	for i, r := range l.Routines {
		rs := RoutineSpec{Name: r.Name, Commands: make([]CommandSpec, len(r.Commands))}
		label := func(id CommandID) string { return fmt.Sprintf("c%d", id) }
		for j, c := range r.Commands {
			cs := CommandSpec{
				Label:    label(CommandID(j)),
				Op:       c.Op,
				Gun:      c.Gun,
				Engine:   c.Engine,
				Distance: c.Distance,
				AngleDeg: c.Angle * 180 / math.Pi,
			}
			if c.Op == OpEnd {
				cs.Routine = l.Routines[c.Routine].Name
			} else {
				cs.Next = label(c.Next)
			}
			if c.Op.Branches() {
				cs.Else = label(c.Else)
			}
			rs.Commands[j] = cs
		}
		specs[i] = rs
	}
	return specs
}

// EncodeLibrary serialises a library with msgpack.
func EncodeLibrary(l *Library) ([]byte, error) {
	b, err := msgpack.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode routine library: %w", err)
	}
	return b, nil
}

// DecodeLibrary parses and validates a msgpack library.
func DecodeLibrary(b []byte) (*Library, error) {
	var l Library
	if err := msgpack.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("decode routine library: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("decode routine library: %w", err)
	}
	l.index()
	return &l, nil
}
