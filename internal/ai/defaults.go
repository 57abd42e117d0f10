package ai

// DefaultSpecs is the built-in routine library used when no routine source
// is configured.
func DefaultSpecs() []RoutineSpec {
	return []RoutineSpec{
		{
			Name: "idle",
			Commands: []CommandSpec{
				{Op: OpNoop},
				{Op: OpEnd},
			},
		},
		{
			Name: "hunter",
			Commands: []CommandSpec{
				{Op: OpIsTargetClose, Distance: 30, Next: "aim", Else: "cruise"},
				{Label: "aim", Op: OpRotateTowards},
				{Op: OpCanSeeTarget, AngleDeg: 10, Next: "fire", Else: "slow"},
				{Label: "fire", Op: OpShoot, Gun: 0},
				{Label: "slow", Op: OpDecreaseSpeed, Engine: 0, Next: "done"},
				{Label: "cruise", Op: OpRotateTowards},
				{Op: OpIncreaseSpeed, Engine: 0},
				{Label: "done", Op: OpEnd},
			},
		},
		{
			Name: "turret",
			Commands: []CommandSpec{
				{Op: OpIsTargetClose, Distance: 45, Else: "done"},
				{Op: OpRotateTowards},
				{Op: OpCanSeeTarget, AngleDeg: 5, Else: "done"},
				{Op: OpShoot, Gun: 0},
				{Label: "done", Op: OpEnd},
			},
		},
		{
			Name: "kamikaze",
			Commands: []CommandSpec{
				{Op: OpRotateTowards},
				{Op: OpIncreaseSpeed, Engine: 0},
				{Op: OpIsTargetClose, Distance: 8, Next: "boost", Else: "done"},
				{Label: "boost", Op: OpIncreaseSpeed, Engine: 0},
				{Label: "done", Op: OpEnd},
			},
		},
	}
}

// DefaultLibrary compiles DefaultSpecs.
func DefaultLibrary() *Library {
	lib, err := Compile(DefaultSpecs())
	if err != nil {
		panic("ai: built-in routines do not compile: " + err.Error())
	}
	return lib
}
