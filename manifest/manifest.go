// Package manifest handles ferris.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Manifest represents a ferris.toml project configuration.
type Manifest struct {
	Project    Project    `toml:"project"`
	Source     Source     `toml:"source"`
	Build      Build      `toml:"build"`
	Properties Properties `toml:"properties"`

	// Dir is the directory containing the ferris.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures script file locations.
type Source struct {
	Dirs      []string `toml:"dirs"`
	Entry     string   `toml:"entry"`
	Extension string   `toml:"extension"`
}

// Build configures compiled unit output.
type Build struct {
	Output string `toml:"output"`
}

// Properties configures exported property behavior across the project.
type Properties struct {
	PreserveOnReload bool `toml:"preserve-on-reload"`
}

// Load parses a ferris.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "ferris.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"scripts"}
	}
	if m.Source.Extension == "" {
		m.Source.Extension = ".ferris"
	}
	if m.Build.Output == "" {
		m.Build.Output = "build"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a ferris.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "ferris.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// OutputDir returns the absolute path of the compiled unit output directory.
func (m *Manifest) OutputDir() string {
	return filepath.Join(m.Dir, m.Build.Output)
}

// ScriptFiles returns every script file under the configured source
// directories, sorted by path. Missing directories are skipped.
func (m *Manifest) ScriptFiles() ([]string, error) {
	var files []string
	for _, dir := range m.SourceDirPaths() {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(path) == m.Source.Extension {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
