package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedLanguage matches files whose language has no grammar.
	// Callers routinely skip such files.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrParseFailed matches files for which the parser produced no tree.
	ErrParseFailed = errors.New("tree-sitter parse failed")
)

// UnsupportedLanguageError reports a file with no registered grammar.
type UnsupportedLanguageError struct {
	Path string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language for file: %s", e.Path)
}

func (e *UnsupportedLanguageError) Is(target error) bool {
	return target == ErrUnsupportedLanguage
}

// ParseError reports that parsing produced no tree, because of a timeout,
// cancellation or an internal grammar failure. A tree that merely contains
// syntax errors is not a ParseError.
type ParseError struct {
	Path string
	// Err is the context error when the parse was cut short, else nil.
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tree-sitter parse failed for: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("tree-sitter parse failed for: %s", e.Path)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailed
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsUnsupported reports whether err is the unsupported-language outcome.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedLanguage)
}
