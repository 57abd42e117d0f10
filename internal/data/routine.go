package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/shipcore/internal/ai"
)

type routineListFile struct {
	Routines []ai.RoutineSpec `yaml:"routines"`
}

// LoadRoutineSpecs loads authored routines from a YAML file. The result
// still has to go through ai.Compile.
func LoadRoutineSpecs(path string) ([]ai.RoutineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routine_list: %w", err)
	}
	var f routineListFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse routine_list: %w", err)
	}
	return f.Routines, nil
}

// LoadRoutineLibrary loads and compiles a routine library.
func LoadRoutineLibrary(path string) (*ai.Library, error) {
	specs, err := LoadRoutineSpecs(path)
	if err != nil {
		return nil, err
	}
	lib, err := ai.Compile(specs)
	if err != nil {
		return nil, fmt.Errorf("routine_list %s: %w", path, err)
	}
	return lib, nil
}

// MarshalRoutineSpecs renders routines in the routine_list format.
func MarshalRoutineSpecs(specs []ai.RoutineSpec) ([]byte, error) {
	out, err := yaml.Marshal(routineListFile{Routines: specs})
	if err != nil {
		return nil, fmt.Errorf("marshal routine_list: %w", err)
	}
	return out, nil
}
