package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFile lists gitignore-style patterns excluded from directory builds.
const IgnoreFile = ".kotcignore"

// CollectSources expands args into source files. Files are kept as given;
// directories are walked for files ending in SourceExt, skipping hidden
// entries and anything matched by the directory's IgnoreFile. A file
// reached twice is listed once, at its first position.
func CollectSources(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(paths ...string) error {
		for _, p := range paths {
			key, err := ResolvePath(p)
			if err != nil {
				return err
			}
			if !seen[key] {
				seen[key] = true
				out = append(out, p)
			}
		}
		return nil
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := add(arg); err != nil {
				return nil, err
			}
			continue
		}
		found, err := walkSources(arg)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no %s files under %s", SourceExt, arg)
		}
		if err := add(found...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func walkSources(root string) ([]string, error) {
	var ignore *gitignore.GitIgnore
	ignorePath := filepath.Join(root, IgnoreFile)
	if _, err := os.Stat(ignorePath); err == nil {
		ignore, err = gitignore.CompileIgnoreFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", ignorePath, err)
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsSource(path) {
			return nil
		}
		if ignore != nil {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if ignore.MatchesPath(rel) {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
