// Ferris CLI - compile, check and run FerrisScript files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/dev-parkins/FerrisScript-sub007/compiler"
	"github.com/dev-parkins/FerrisScript-sub007/vm"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ferris <command> [options] [files...]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  check    Compile scripts and report diagnostics\n")
		fmt.Fprintf(os.Stderr, "  build    Compile every script in the project manifest\n")
		fmt.Fprintf(os.Stderr, "  run      Compile a script and call a function in it\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ferris check player.ferris           # Report diagnostics\n")
		fmt.Fprintf(os.Stderr, "  ferris check -o player.fsc player.ferris\n")
		fmt.Fprintf(os.Stderr, "  ferris build                         # Build per ferris.toml\n")
		fmt.Fprintf(os.Stderr, "  ferris run -m main player.ferris     # Run a function\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "check":
		handleCheckCommand(os.Args[2:])
	case "build":
		handleBuildCommand(os.Args[2:])
	case "run":
		handleRunCommand(os.Args[2:])
	case "-h", "--help", "help":
		flag.Usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", os.Args[1])
		flag.Usage()
		os.Exit(2)
	}
}

func configureLogging(verbose bool) {
	verbosity := 0
	if verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)
}

// handleCheckCommand processes `ferris check [-o out.fsc] [-v] <files...>`.
func handleCheckCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	output := fs.String("o", "", "Write the compiled unit to this path (single file only)")
	verbose := fs.Bool("v", false, "Verbose output")
	fs.Parse(args)

	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Error: ferris check requires at least one script file")
		os.Exit(2)
	}
	if *output != "" && len(files) != 1 {
		fmt.Fprintln(os.Stderr, "Error: -o works with exactly one input file")
		os.Exit(2)
	}
	configureLogging(*verbose)

	failed := false
	for _, file := range files {
		unit, ok := compileFile(file)
		if !ok {
			failed = true
			continue
		}
		if *verbose {
			fmt.Printf("%s: %d function(s), %d exported propert%s\n",
				file, len(unit.Program.Functions), len(unit.Properties),
				pluralY(len(unit.Properties)))
		}
		if *output != "" {
			if err := writeUnit(unit, *output); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
	}
	if failed {
		os.Exit(1)
	}
}

// handleRunCommand processes `ferris run [-m entry] [-v] <file>`.
func handleRunCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	entry := fs.String("m", "main", "Function to call")
	verbose := fs.Bool("v", false, "Verbose output")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: ferris run requires exactly one script file")
		os.Exit(2)
	}
	configureLogging(*verbose)

	unit, ok := compileFile(fs.Arg(0))
	if !ok {
		os.Exit(1)
	}

	env, err := vm.NewEnvironment(unit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	env.SetCallbacks(vm.HostCallbacks{
		Print: func(line string) { fmt.Println(line) },
	})

	result, err := env.CallFunction(*entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !result.IsNil() {
		fmt.Println(result.String())
	}
	// A small integer result becomes the exit code.
	if result.Kind == vm.KindInt && result.I != 0 {
		os.Exit(int(result.I))
	}
}

func compileFile(file string) (*compiler.CompiledUnit, bool) {
	source, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read %s: %v\n", file, err)
		return nil, false
	}
	unit, diags := compiler.Compile(file, string(source))
	if compiler.HasErrors(diags) {
		fmt.Fprint(os.Stderr, compiler.RenderAll(diags, file, string(source)))
		return nil, false
	}
	return unit, true
}

func writeUnit(unit *compiler.CompiledUnit, path string) error {
	data, err := compiler.MarshalUnit(unit)
	if err != nil {
		return fmt.Errorf("cannot encode %s: %w", unit.Filename, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
