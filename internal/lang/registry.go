package lang

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Resolve maps a file path to its language by extension. It returns false for
// any extension without a registered grammar; that is a normal outcome, not
// an error.
func Resolve(path string) (Language, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	l, ok := byExtension[ext]
	return l, ok
}

// Detect resolves by extension and falls back to a shebang sniff of the first
// line, but only for files without an extension.
func Detect(path string, content []byte) (Language, bool) {
	if l, ok := Resolve(path); ok {
		return l, true
	}
	if filepath.Ext(path) != "" {
		return "", false
	}
	return sniffShebang(content)
}

// interpreters maps shebang interpreter names (version digits stripped) to
// languages.
var interpreters = map[string]Language{
	"python":  Python,
	"pypy":    Python,
	"node":    JavaScript,
	"nodejs":  JavaScript,
	"deno":    TypeScript,
	"ts-node": TypeScript,
	"tsx":     TypeScript,
	"bun":     TypeScript,
	"ruby":    Ruby,
	"php":     PHP,
}

func sniffShebang(content []byte) (Language, bool) {
	if !bytes.HasPrefix(content, []byte("#!")) {
		return "", false
	}
	line := content[2:]
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(string(line))
	if len(fields) == 0 {
		return "", false
	}
	interp := filepath.Base(fields[0])
	if interp == "env" {
		// #!/usr/bin/env [-S] python3
		rest := fields[1:]
		for len(rest) > 0 && strings.HasPrefix(rest[0], "-") {
			rest = rest[1:]
		}
		if len(rest) == 0 {
			return "", false
		}
		interp = filepath.Base(rest[0])
	}
	interp = strings.TrimRight(interp, "0123456789.")
	l, ok := interpreters[interp]
	return l, ok
}
