package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dev-parkins/FerrisScript-sub007/manifest"
)

// handleBuildCommand processes the `ferris build` subcommand.
// Usage:
//
//	ferris build           # compile per ferris.toml into the output dir
//	ferris build -v        # report each compiled script
func handleBuildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	fs.Parse(args)
	configureLogging(*verbose)

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		fmt.Fprintln(os.Stderr, "Error: no ferris.toml found")
		os.Exit(1)
	}

	files, err := m.ScriptFiles()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning source dirs: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No script files found")
		os.Exit(1)
	}

	outDir := m.OutputDir()
	if err := os.MkdirAll(outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create %s: %v\n", outDir, err)
		os.Exit(1)
	}

	failed := 0
	for _, file := range files {
		unit, ok := compileFile(file)
		if !ok {
			failed++
			continue
		}
		base := strings.TrimSuffix(filepath.Base(file), m.Source.Extension)
		out := filepath.Join(outDir, base+".fsc")
		if err := writeUnit(unit, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed++
			continue
		}
		if *verbose {
			fmt.Printf("%s -> %s\n", file, out)
		}
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d script(s) failed to compile\n", failed, len(files))
		os.Exit(1)
	}
	if *verbose {
		fmt.Printf("Compiled %d script(s)\n", len(files))
	}
}
