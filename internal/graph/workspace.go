package graph

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Workspace is the repository metadata import resolution needs beyond the
// file list. It is read once from disk by LoadWorkspace so that resolution
// itself stays free of IO.
type Workspace struct {
	// GoModule is the module path declared in the root go.mod.
	GoModule string
	// Packages are npm/bun workspace packages keyed by package name.
	Packages map[string]Package
}

// Package is a single npm/bun workspace package.
type Package struct {
	Dir     string          // repo-relative, slash-separated (e.g. "packages/db")
	Main    string          // "main" field, relative to Dir
	Exports json.RawMessage // raw "exports" field
}

// packageJSON is a minimal representation for reading package.json files.
type packageJSON struct {
	Name       string          `json:"name"`
	Main       string          `json:"main"`
	Workspaces json.RawMessage `json:"workspaces"`
	Exports    json.RawMessage `json:"exports"`
}

// LoadWorkspace reads go.mod and package.json workspace metadata under root.
// Missing files are not an error; a malformed root package.json is.
func LoadWorkspace(root string) (*Workspace, error) {
	ws := &Workspace{Packages: make(map[string]Package)}

	mod, err := readGoModule(filepath.Join(root, "go.mod"))
	if err != nil {
		return nil, err
	}
	ws.GoModule = mod

	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return ws, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read package.json: %w", err)
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}

	fsys := os.DirFS(root)
	for _, pattern := range parseWorkspacePatterns(pkg.Workspaces) {
		dirs, err := doublestar.Glob(fsys, strings.TrimPrefix(pattern, "./"))
		if err != nil {
			return nil, fmt.Errorf("workspace pattern %q: %w", pattern, err)
		}
		// Matches that are not directories have no package.json and drop out.
		for _, dir := range dirs {
			loadWorkspacePackage(fsys, dir, ws)
		}
	}
	return ws, nil
}

func readGoModule(modPath string) (string, error) {
	f, err := os.Open(modPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("open go.mod: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "module ") {
			return strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, "module")), `"`), nil
		}
	}
	return "", scanner.Err()
}

func parseWorkspacePatterns(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	// Array of globs: ["packages/*", "apps/*"]
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}

	// Object with "packages" key: {"packages": ["packages/*"]}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Packages
	}

	return nil
}

func loadWorkspacePackage(fsys fs.FS, dir string, ws *Workspace) {
	data, err := fs.ReadFile(fsys, path.Join(dir, "package.json"))
	if err != nil {
		return
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.Name == "" {
		return
	}
	ws.Packages[pkg.Name] = Package{
		Dir:     path.Clean(dir),
		Main:    pkg.Main,
		Exports: pkg.Exports,
	}
}
