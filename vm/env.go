package vm

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/dev-parkins/FerrisScript-sub007/compiler"
)

var log = commonlog.GetLogger("ferris.vm")

// maxCallDepth bounds script recursion. Exceeding it aborts the call with a
// stack overflow error instead of crashing the host.
const maxCallDepth = 256

// Environment is one runtime instance of a compiled unit: its global
// variables, its exported property store, and its host callbacks. Many
// environments may share one unit, but a single environment is not safe for
// concurrent use; the host drives it from one goroutine at a time.
type Environment struct {
	unit    *compiler.CompiledUnit
	globals map[string]Value
	order   []string
	props   map[string]compiler.PropertyMetadata
	host    HostCallbacks
	depth   int
}

// NewEnvironment creates an environment for a compiled unit and runs the
// global initializers in declaration order. Initializers may reference
// earlier globals; they run before any host callbacks are installed, so
// node queries in them fail.
func NewEnvironment(unit *compiler.CompiledUnit) (*Environment, error) {
	env := &Environment{unit: unit}
	if err := env.initGlobals(unit); err != nil {
		return nil, err
	}
	return env, nil
}

// SetCallbacks installs the host hooks. Replaces any previous set.
func (env *Environment) SetCallbacks(cb HostCallbacks) {
	env.host = cb
}

// Unit returns the compiled unit this environment executes.
func (env *Environment) Unit() *compiler.CompiledUnit {
	return env.unit
}

// Properties lists the exported property metadata of the loaded unit in
// declaration order.
func (env *Environment) Properties() []compiler.PropertyMetadata {
	return env.unit.Properties
}

func (env *Environment) initGlobals(unit *compiler.CompiledUnit) *RuntimeError {
	env.globals = make(map[string]Value, len(unit.Program.Globals))
	env.order = make([]string, 0, len(unit.Program.Globals))
	env.props = make(map[string]compiler.PropertyMetadata, len(unit.Properties))
	for _, p := range unit.Properties {
		env.props[p.Name] = p
	}
	for _, g := range unit.Program.Globals {
		t, _ := compiler.TypeByName(g.Type.Name)
		val, err := env.eval(g.Init, nil)
		if err != nil {
			return err
		}
		converted, ok := Convert(val, t)
		if !ok {
			return runtimeErrorf(compiler.CodeBadArgument, g.Span(),
				"initializer for %q produced %s, want %s", g.Name, val.Kind, t)
		}
		env.globals[g.Name] = converted
		env.order = append(env.order, g.Name)
	}
	return nil
}

// Reload swaps in a newly compiled unit. When preserve is true, exported
// property values carried over from the old unit survive the reload as long
// as the new unit exports a property of the same name and type; carried
// values are clamped to the new range. The swap is atomic: on failure the
// environment keeps its previous state.
func (env *Environment) Reload(unit *compiler.CompiledUnit, preserve bool) error {
	var carried map[string]Value
	if preserve {
		carried = make(map[string]Value, len(env.props))
		for name := range env.props {
			carried[name] = env.globals[name]
		}
	}

	prev := *env
	if err := env.initGlobals(unit); err != nil {
		*env = prev
		return err
	}
	env.unit = unit
	env.depth = 0

	for name, val := range carried {
		meta, ok := env.props[name]
		if !ok {
			continue
		}
		converted, ok := Convert(val, meta.Type)
		if !ok {
			continue
		}
		env.globals[name] = clampToRange(converted, meta.Range)
	}

	log.Infof("reloaded %s: %d globals, %d exported properties",
		unit.Filename, len(env.globals), len(env.props))
	return nil
}

// GlobalNames returns the names of all globals in declaration order.
// Intended for debugging and tests.
func (env *Environment) GlobalNames() []string {
	out := make([]string, len(env.order))
	copy(out, env.order)
	return out
}

// Global reads a global variable by name, exported or not.
func (env *Environment) Global(name string) (Value, bool) {
	v, ok := env.globals[name]
	return v, ok
}

func (env *Environment) printLine(line string) {
	if env.host.Print != nil {
		env.host.Print(line)
		return
	}
	log.Info(line)
}

func (env *Environment) String() string {
	return fmt.Sprintf("Environment(%s)", env.unit.Filename)
}
