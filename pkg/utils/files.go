package utils

import (
	"path/filepath"
	"strings"
)

// SourceExt is the extension of compiler input files.
const SourceExt = ".kt"

// ResolvePath returns the absolute, cleaned form of path. When the file
// exists, symlinks are followed so that two names for one file compare equal.
func ResolvePath(path string) (string, error) {
	full, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(full); err == nil {
		return resolved, nil
	}
	return full, nil
}

// Stem strips the directory and the last extension from path.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sibling replaces the extension of path with ext, keeping the directory.
// When outDir is set the file is placed there instead.
func sibling(path, outDir, ext string) string {
	dir := filepath.Dir(path)
	if outDir != "" {
		dir = outDir
	}
	return filepath.Join(dir, Stem(path)+ext)
}

// AsmPath is where the listing for source is written.
func AsmPath(source, outDir string) string { return sibling(source, outDir, ".asm") }

// ObjectPath is where the assembler writes the object for source.
func ObjectPath(source, outDir string) string { return sibling(source, outDir, ".o") }

// ExecutablePath is where the linker writes the program for source.
func ExecutablePath(source, outDir string) string { return sibling(source, outDir, "") }

// IsSource reports whether path names a compiler input file.
func IsSource(path string) bool { return filepath.Ext(path) == SourceExt }
