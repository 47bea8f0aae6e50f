package vm

// HostCallbacks are the hooks a host engine installs on an environment to
// service node queries and signal emission. Any hook may be nil; calling a
// builtin whose hook is missing is a runtime error, not a crash.
//
// Callbacks are invoked synchronously on the goroutine executing the script.
type HostCallbacks struct {
	// GetNode resolves a node path to a handle. The second result reports
	// whether the path resolved; a false return surfaces as nil in script.
	GetNode func(path string) (NodeHandle, bool)

	// GetParent returns the parent of the node owning this environment.
	GetParent func() (NodeHandle, bool)

	// HasNode reports whether a node path resolves.
	HasNode func(path string) bool

	// FindChild searches descendants for a node matching the pattern.
	FindChild func(pattern string) (NodeHandle, bool)

	// EmitSignal fires a named signal with already-evaluated arguments.
	EmitSignal func(name string, args []Value) error

	// Print receives output from the print builtin. When nil the
	// environment logs the line instead.
	Print func(line string)
}
