// Package discover finds QML source files in a directory tree.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
)

// Extension is the file extension of QML documents.
const Extension = ".qml"

// FileEntry represents a discovered QML file.
type FileEntry struct {
	Path string // Relative to the scanned root
}

// Options narrow the set of files returned by Files.
type Options struct {
	// Exclude holds extra gitignore-style patterns.
	Exclude []string
	// IncludeTests keeps Qt Quick Test files such as tst_button.qml.
	IncludeTests bool
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	"build":        {},
	"dist":         {},
	".rcc":         {},
	".qmlcache":    {},
}

// Files discovers QML files under root, honoring .gitignore.
func Files(root string, opts Options) ([]FileEntry, error) {
	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}
	var exclude *ignore.GitIgnore
	if len(opts.Exclude) > 0 {
		exclude = ignore.CompileIgnoreLines(opts.Exclude...)
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || filepath.Ext(name) != Extension {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if exclude != nil && exclude.MatchesPath(rel) {
			return nil
		}
		if !opts.IncludeTests && IsTestFile(rel) {
			return nil
		}

		results = append(results, FileEntry{Path: rel})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

var testDirs = map[string]struct{}{
	"test":  {},
	"tests": {},
	"auto":  {},
}

// IsTestFile reports whether path is a Qt Quick Test file: a tst_*.qml file
// or any QML file below a test directory.
func IsTestFile(path string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for _, dir := range parts[:len(parts)-1] {
		if _, ok := testDirs[dir]; ok {
			return true
		}
	}
	return strings.HasPrefix(parts[len(parts)-1], "tst_")
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
