// Package security guards file paths derived from scan input.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrPathEscape indicates the resolved path would escape the trusted root directory.
	ErrPathEscape = errors.New("path escapes base directory")
	// ErrEmptyBase is returned when no base directory is given.
	ErrEmptyBase = errors.New("base directory is required")
)

// ResolveWithin joins elems under base and rejects results outside base.
// The returned path is absolute.
func ResolveWithin(base string, elems ...string) (string, error) {
	if base == "" {
		return "", ErrEmptyBase
	}

	root, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}

	target, err := filepath.Abs(filepath.Join(append([]string{root}, elems...)...))
	if err != nil {
		return "", fmt.Errorf("resolve target path: %w", err)
	}

	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", fmt.Errorf("relativize path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, target)
	}
	return target, nil
}

// SanitizeFileName maps a domain to a single safe path component.
// Anything outside [A-Za-z0-9.-_] becomes '_' and leading dots are dropped.
func SanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "scan"
	}
	return out
}

// ReportPath returns <dir>/<domain>-YYYYMMDD.<ext>, confined to dir.
func ReportPath(dir, domain, ext string, at time.Time) (string, error) {
	name := fmt.Sprintf("%s-%s.%s", SanitizeFileName(domain), at.UTC().Format("20060102"), ext)
	return ResolveWithin(dir, name)
}
