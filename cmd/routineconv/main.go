// routineconv converts routine libraries between Lua scripts, YAML and
// msgpack, validating them on the way, and prints the library digest.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l1jgo/shipcore/internal/ai"
	"github.com/l1jgo/shipcore/internal/data"
	"github.com/l1jgo/shipcore/internal/scripting"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintln(os.Stderr, "Usage: routineconv <scripts-dir|routines.yaml|routines.msgpack> [output.yaml|output.msgpack]")
		os.Exit(1)
	}
	lib, err := load(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	digest, err := lib.Digest()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(os.Args) == 3 {
		if err := save(lib, os.Args[2]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d routines to %s\n", lib.Len(), os.Args[2])
	}
	fmt.Printf("%s  %s\n", digest, strings.Join(lib.Names(), ","))
}

func load(path string) (*ai.Library, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return scripting.LoadRoutines(path, zap.NewNop())
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return data.LoadRoutineLibrary(path)
	case ".msgpack", ".mp":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ai.DecodeLibrary(b)
	}
	return nil, fmt.Errorf("%s: unknown routine format", path)
}

func save(lib *ai.Library, path string) error {
	var out []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		out, err = data.MarshalRoutineSpecs(lib.Specs())
	case ".msgpack", ".mp":
		out, err = ai.EncodeLibrary(lib)
	default:
		return fmt.Errorf("%s: unknown routine format", path)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
