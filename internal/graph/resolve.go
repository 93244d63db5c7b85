package graph

import (
	"encoding/json"
	"path"
	"sort"
	"strings"

	"github.com/dusk-indust/anchor/internal/lang"
)

// ImportResolver rewrites raw import specifiers (as extracted) into
// repo-relative file paths that match FileNode.Path values. It is built from
// the set of known file paths plus Workspace metadata and does no IO.
type ImportResolver struct {
	fileSet      map[string]bool
	dirIndex     map[string][]string
	baseIndex    map[string][]string
	tsWorkspaces map[string]*tsWorkspace
	goModPath    string
}

// tsWorkspace holds resolved metadata about a single npm/bun workspace package.
type tsWorkspace struct {
	dir            string            // repo-relative directory (e.g. "packages/db")
	mainFile       string            // default export target, repo-relative
	subpathExports map[string]string // "./queries" -> "packages/db/src/queries.ts"
}

// NewImportResolver builds an ImportResolver. ws may be nil.
func NewImportResolver(ws *Workspace, knownFiles []string) *ImportResolver {
	r := &ImportResolver{
		fileSet:      make(map[string]bool, len(knownFiles)),
		dirIndex:     make(map[string][]string),
		baseIndex:    make(map[string][]string),
		tsWorkspaces: make(map[string]*tsWorkspace),
	}

	sorted := make([]string, len(knownFiles))
	copy(sorted, knownFiles)
	sort.Strings(sorted)
	for _, f := range sorted {
		r.fileSet[f] = true
		r.dirIndex[path.Dir(f)] = append(r.dirIndex[path.Dir(f)], f)
		r.baseIndex[path.Base(f)] = append(r.baseIndex[path.Base(f)], f)
	}

	if ws != nil {
		r.goModPath = ws.GoModule
		for name, pkg := range ws.Packages {
			r.tsWorkspaces[name] = r.loadWorkspacePackage(pkg)
		}
	}
	return r
}

// Resolve maps an import specifier found in sourceFile to a known file.
func (r *ImportResolver) Resolve(l lang.Language, importPath, sourceFile string) (string, bool) {
	if importPath == "" {
		return "", false
	}
	switch l {
	case lang.TypeScript, lang.TSX, lang.JavaScript:
		return r.resolveTS(importPath, sourceFile)
	case lang.Go:
		return r.resolveGo(importPath)
	case lang.Python:
		return r.resolvePython(importPath, sourceFile)
	case lang.Rust:
		return r.resolveRust(importPath, sourceFile)
	case lang.C, lang.Cpp:
		return r.resolveInclude(importPath, sourceFile)
	case lang.Java:
		return r.uniqueSuffix(strings.ReplaceAll(importPath, ".", "/") + ".java")
	case lang.PHP:
		return r.resolvePHP(importPath)
	}
	// C# usings name namespaces, Ruby requires are calls, Zig has no rule.
	return "", false
}

// --- TypeScript / JavaScript resolution ---

var tsExtensions = []string{
	".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs",
	"/index.ts", "/index.tsx", "/index.js", "/index.jsx",
}

func (r *ImportResolver) resolveTS(importPath, sourceFile string) (string, bool) {
	if strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../") {
		base := path.Join(path.Dir(sourceFile), importPath)
		return r.findFile(base, tsExtensions)
	}
	return r.resolveTSWorkspace(importPath)
}

func (r *ImportResolver) resolveTSWorkspace(importPath string) (string, bool) {
	if ws, ok := r.tsWorkspaces[importPath]; ok {
		if ws.mainFile != "" {
			return ws.mainFile, true
		}
		return "", false // workspace has no default export
	}

	// Scoped: "@scope/pkg/sub/path" -> package="@scope/pkg", subpath="./sub/path"
	// Unscoped: "pkg/sub/path" -> package="pkg", subpath="./sub/path"
	var pkgName, subpath string
	if strings.HasPrefix(importPath, "@") {
		afterScope := strings.Index(importPath[1:], "/")
		if afterScope == -1 {
			return "", false
		}
		scopeEnd := afterScope + 1
		secondSlash := strings.Index(importPath[scopeEnd+1:], "/")
		if secondSlash == -1 {
			return "", false
		}
		splitAt := scopeEnd + 1 + secondSlash
		pkgName = importPath[:splitAt]
		subpath = "./" + importPath[splitAt+1:]
	} else {
		slash := strings.Index(importPath, "/")
		if slash == -1 {
			return "", false
		}
		pkgName = importPath[:slash]
		subpath = "./" + importPath[slash+1:]
	}

	ws, ok := r.tsWorkspaces[pkgName]
	if !ok {
		return "", false // external package
	}
	if target, ok := ws.subpathExports[subpath]; ok {
		return target, true
	}
	return r.findFile(path.Join(ws.dir, subpath[2:]), tsExtensions)
}

// --- Go resolution ---

func (r *ImportResolver) resolveGo(importPath string) (string, bool) {
	if r.goModPath == "" {
		return "", false
	}
	if importPath != r.goModPath && !strings.HasPrefix(importPath, r.goModPath+"/") {
		return "", false // stdlib or external module
	}

	relDir := strings.TrimPrefix(strings.TrimPrefix(importPath, r.goModPath), "/")
	if relDir == "" {
		relDir = "."
	}

	// dirIndex is sorted; the first non-test file represents the package.
	for _, f := range r.dirIndex[relDir] {
		if strings.HasSuffix(f, ".go") && !strings.HasSuffix(f, "_test.go") {
			return f, true
		}
	}
	return "", false
}

// --- Python resolution ---

func (r *ImportResolver) resolvePython(importPath, sourceFile string) (string, bool) {
	if !strings.HasPrefix(importPath, ".") {
		// Absolute imports resolve only when the module lives in the repo.
		relPath := strings.ReplaceAll(importPath, ".", "/")
		for _, base := range []string{relPath, path.Join("src", relPath)} {
			if resolved, ok := r.findFile(base, []string{".py", "/__init__.py"}); ok {
				return resolved, true
			}
		}
		return "", false
	}

	dots := len(importPath) - len(strings.TrimLeft(importPath, "."))
	modulePart := importPath[dots:]

	// One dot is the current package, two the parent, and so on.
	baseDir := path.Dir(sourceFile)
	for i := 1; i < dots; i++ {
		baseDir = path.Dir(baseDir)
	}

	if modulePart == "" {
		return r.findFile(path.Join(baseDir, "__init__"), []string{".py"})
	}

	base := path.Join(baseDir, strings.ReplaceAll(modulePart, ".", "/"))
	return r.findFile(base, []string{".py", "/__init__.py"})
}

// --- Rust resolution ---

var rustExtensions = []string{".rs", "/mod.rs"}

func (r *ImportResolver) resolveRust(importPath, sourceFile string) (string, bool) {
	// "crate::model::{Repository,User}" -> "crate::model"
	if idx := strings.Index(importPath, "::{"); idx != -1 {
		importPath = importPath[:idx]
	}
	importPath = strings.TrimSuffix(importPath, "::*")

	var bases []string
	switch {
	case strings.HasPrefix(importPath, "crate::"):
		relPath := strings.ReplaceAll(strings.TrimPrefix(importPath, "crate::"), "::", "/")
		bases = []string{path.Join("src", relPath), relPath}
		if srcDir := findCrateRoot(sourceFile); srcDir != "" {
			bases = append(bases, path.Join(srcDir, relPath))
		}
	case strings.HasPrefix(importPath, "self::"):
		relPath := strings.ReplaceAll(strings.TrimPrefix(importPath, "self::"), "::", "/")
		bases = []string{path.Join(path.Dir(sourceFile), relPath)}
	case strings.HasPrefix(importPath, "super::"):
		relPath := strings.ReplaceAll(strings.TrimPrefix(importPath, "super::"), "::", "/")
		bases = []string{path.Join(path.Dir(path.Dir(sourceFile)), relPath)}
	default:
		return "", false // external crate
	}

	for _, base := range bases {
		if resolved, ok := r.findFile(base, rustExtensions); ok {
			return resolved, true
		}
		// The last segment may name an item inside the module file.
		if parent := path.Dir(base); parent != "." {
			if resolved, ok := r.findFile(parent, rustExtensions); ok {
				return resolved, true
			}
		}
	}
	return "", false
}

// findCrateRoot walks up from a file path to find the nearest "src"
// directory, the conventional Rust crate source root.
func findCrateRoot(filePath string) string {
	dir := path.Dir(filePath)
	for dir != "." && dir != "/" && dir != "" {
		if path.Base(dir) == "src" {
			return dir
		}
		dir = path.Dir(dir)
	}
	return ""
}

// --- C / C++ resolution ---

func (r *ImportResolver) resolveInclude(importPath, sourceFile string) (string, bool) {
	if resolved, ok := r.findFile(path.Join(path.Dir(sourceFile), importPath), nil); ok {
		return resolved, true
	}
	if resolved, ok := r.findFile(path.Clean(importPath), nil); ok {
		return resolved, true
	}
	return r.uniqueSuffix(importPath)
}

// --- PHP resolution ---

// resolvePHP maps a namespace to a file by its longest unique path suffix,
// which covers PSR-4 layouts without reading composer.json.
func (r *ImportResolver) resolvePHP(importPath string) (string, bool) {
	segments := strings.Split(strings.Trim(strings.ReplaceAll(importPath, `\`, "/"), "/"), "/")
	for i := range segments {
		if resolved, ok := r.uniqueSuffix(strings.Join(segments[i:], "/") + ".php"); ok {
			return resolved, true
		}
	}
	return "", false
}

// --- Shared helpers ---

// findFile checks if basePath (with any of the given extensions appended)
// exists in the known file set.
func (r *ImportResolver) findFile(basePath string, extensions []string) (string, bool) {
	basePath = path.Clean(basePath)
	if r.fileSet[basePath] {
		return basePath, true
	}
	for _, ext := range extensions {
		candidate := basePath + ext
		if r.fileSet[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// uniqueSuffix returns the single known file whose path ends with suffix on
// a directory boundary.
func (r *ImportResolver) uniqueSuffix(suffix string) (string, bool) {
	suffix = path.Clean(suffix)
	var found string
	for _, f := range r.baseIndex[path.Base(suffix)] {
		if f == suffix || strings.HasSuffix(f, "/"+suffix) {
			if found != "" {
				return "", false
			}
			found = f
		}
	}
	return found, found != ""
}

// --- Workspace packages ---

func (r *ImportResolver) loadWorkspacePackage(pkg Package) *tsWorkspace {
	ws := &tsWorkspace{
		dir:            pkg.Dir,
		subpathExports: make(map[string]string),
	}

	r.parseExports(ws, pkg.Exports)

	if ws.mainFile == "" && pkg.Main != "" {
		if resolved, ok := r.findFile(path.Join(ws.dir, pkg.Main), tsExtensions); ok {
			ws.mainFile = resolved
		}
	}

	// Last resort: index.* in the package root or src/.
	if ws.mainFile == "" {
		for _, try := range []string{path.Join(ws.dir, "src", "index"), path.Join(ws.dir, "index")} {
			if resolved, ok := r.findFile(try, tsExtensions); ok {
				ws.mainFile = resolved
				break
			}
		}
	}
	return ws
}

func (r *ImportResolver) parseExports(ws *tsWorkspace, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}

	// "exports": "./src/index.ts"
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if resolved, ok := r.findFile(path.Join(ws.dir, str), tsExtensions); ok {
			ws.mainFile = resolved
		}
		return
	}

	// "exports": {".": "./src/index.ts", "./queries": "./src/queries.ts"}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return
	}
	for key, val := range obj {
		target := resolveExportValue(val)
		if target == "" {
			continue
		}
		resolved, ok := r.findFile(path.Join(ws.dir, target), tsExtensions)
		if !ok {
			continue
		}
		if key == "." {
			ws.mainFile = resolved
		} else {
			ws.subpathExports[key] = resolved
		}
	}
}

// resolveExportValue extracts a file path from an export value, which can be
// a string or a conditional object {"import": "...", "default": "..."}.
func resolveExportValue(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for _, key := range []string{"import", "default", "require"} {
		if v, ok := obj[key]; ok {
			return resolveExportValue(v)
		}
	}
	return ""
}
