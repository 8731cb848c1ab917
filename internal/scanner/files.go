package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/toyz/anchor/pkg/anchor/errors"
)

// GeneratedPrefix marks files written by anchor; they are never scanned
const GeneratedPrefix = "autogen_"

// FileFilter defines a function that determines whether a file should be processed
type FileFilter func(path string, info os.DirEntry) bool

// DirectoryFilter defines a function that determines whether a directory should be processed
type DirectoryFilter func(path string, info os.DirEntry) bool

// DefaultGoFileFilter filters for .go files, excluding tests and generated files
func DefaultGoFileFilter() FileFilter {
	return func(path string, info os.DirEntry) bool {
		if info.IsDir() {
			return false
		}

		name := info.Name()
		return strings.HasSuffix(name, ".go") &&
			!strings.HasSuffix(name, "_test.go") &&
			!strings.HasPrefix(name, GeneratedPrefix)
	}
}

// GeneratedFileFilter filters for files written by anchor
func GeneratedFileFilter() FileFilter {
	return func(path string, info os.DirEntry) bool {
		return !info.IsDir() && strings.HasPrefix(info.Name(), GeneratedPrefix) && strings.HasSuffix(info.Name(), ".go")
	}
}

// DefaultDirectoryFilter skips directories that shouldn't contain source code
func DefaultDirectoryFilter() DirectoryFilter {
	skipDirs := map[string]bool{
		"vendor":       true,
		"node_modules": true,
		"testdata":     true,
	}

	return func(path string, info os.DirEntry) bool {
		if !info.IsDir() {
			return true
		}

		name := info.Name()

		// Skip hidden and underscore directories, as the go tool does
		if (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) && name != "." && name != ".." {
			return false
		}

		return !skipDirs[name]
	}
}

// ResolvePatterns expands Go-style directory patterns. "dir/..." yields dir
// and every source directory below it; a plain directory yields itself when
// it holds Go files. The result is sorted and free of duplicates.
func ResolvePatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, pattern := range patterns {
		recursive := pattern == "..." || strings.HasSuffix(pattern, "/...")
		base := strings.TrimSuffix(strings.TrimSuffix(pattern, "..."), "/")
		if base == "" {
			base = "."
		}

		info, err := os.Stat(base)
		if err != nil {
			return nil, errors.FileSystemError("scan", base, err)
		}
		if !info.IsDir() {
			return nil, errors.FileSystemError("scan", base, fmt.Errorf("not a directory"))
		}

		if !recursive {
			files, err := SourceFiles(base)
			if err != nil {
				return nil, err
			}
			if len(files) > 0 {
				add(filepath.Clean(base))
			}
			continue
		}

		found, err := sourceDirectories(base)
		if err != nil {
			return nil, err
		}
		for _, dir := range found {
			add(dir)
		}
	}

	sort.Strings(dirs)
	return dirs, nil
}

func sourceDirectories(root string) ([]string, error) {
	var dirs []string
	directoryFilter := DefaultDirectoryFilter()

	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && !directoryFilter(path, entry) {
			return filepath.SkipDir
		}

		files, err := SourceFiles(path)
		if err != nil {
			return err
		}
		if len(files) > 0 {
			dirs = append(dirs, filepath.Clean(path))
		}
		return nil
	})
	if err != nil {
		return nil, errors.FileSystemError("walk", root, err)
	}
	return dirs, nil
}

// SourceFiles returns the Go source files of dir, sorted by name
func SourceFiles(dir string) ([]string, error) {
	return filesMatching(dir, DefaultGoFileFilter())
}

func filesMatching(dir string, filter FileFilter) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.FileSystemError("read directory", dir, err)
	}

	var files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if filter(path, entry) {
			files = append(files, path)
		}
	}
	return files, nil
}

// CleanGenerated removes the files anchor generated in the directories the
// patterns resolve to and returns the removed paths
func CleanGenerated(patterns []string) ([]string, error) {
	var removed []string

	for _, pattern := range patterns {
		recursive := pattern == "..." || strings.HasSuffix(pattern, "/...")
		base := strings.TrimSuffix(strings.TrimSuffix(pattern, "..."), "/")
		if base == "" {
			base = "."
		}

		dirs := []string{base}
		if recursive {
			dirs = nil
			directoryFilter := DefaultDirectoryFilter()
			err := filepath.WalkDir(base, func(path string, entry os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if entry.IsDir() {
					if path != base && !directoryFilter(path, entry) {
						return filepath.SkipDir
					}
					dirs = append(dirs, path)
				}
				return nil
			})
			if err != nil {
				return removed, errors.FileSystemError("walk", base, err)
			}
		}

		for _, dir := range dirs {
			files, err := filesMatching(dir, GeneratedFileFilter())
			if err != nil {
				return removed, err
			}
			for _, file := range files {
				if err := os.Remove(file); err != nil {
					return removed, errors.FileSystemError("remove", file, err)
				}
				removed = append(removed, file)
			}
		}
	}

	return removed, nil
}
