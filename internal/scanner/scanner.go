package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/varmap/varmap/pkg/config"
)

// Scanner finds the mapping inputs in a directory tree: C sources, build
// files and the root Kconfig file.
type Scanner struct {
	config   *config.Config
	matchers []gitignore.Matcher
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns loads exclusion patterns from both config and
// .gitignore files. Config patterns are parsed as gitignore syntax.
func (s *Scanner) loadExcludePatterns(root string) {
	var patterns []gitignore.Pattern

	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}

	if s.config.Exclude.Gitignore {
		gitRoot := findGitRoot(root)
		if gitRoot != "" {
			fs := osfs.New(gitRoot)
			if gitPatterns, err := gitignore.ReadPatterns(fs, nil); err == nil {
				patterns = append(patterns, gitPatterns...)
			}
		}
	}

	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

// isExcluded checks if a path matches any exclusion pattern.
func (s *Scanner) isExcluded(path string, isDir bool) bool {
	if len(s.matchers) == 0 {
		return false
	}

	pathParts := strings.Split(path, string(filepath.Separator))
	for _, m := range s.matchers {
		if m.Match(pathParts, isDir) {
			return true
		}
	}
	return false
}

// Inputs is the result of scanning a directory.
type Inputs struct {
	// Sources are the C files to extract conditionals from.
	Sources []string

	// BuildFiles are the Makefile/Kbuild files to mine.
	BuildFiles []string

	// KconfigFile is the root Kconfig file, empty when absent.
	KconfigFile string
}

// ScanDir recursively scans a directory for mapping inputs, honoring
// configured and .gitignore exclusions.
func (s *Scanner) ScanDir(root string) (*Inputs, error) {
	inputs := &Inputs{
		Sources:    make([]string, 0, 1024),
		BuildFiles: make([]string, 0, 64),
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(root)

	kconfigName := s.config.Mapping.KconfigFile
	if kconfigName == "" {
		kconfigName = "Kconfig"
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		// Symlinks that escape the scanned root are skipped.
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if relPath != "." && (s.isExcluded(relPath, true) || s.config.ShouldExclude(relPath+string(filepath.Separator))) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(relPath, false) || s.config.ShouldExclude(relPath) {
			return nil
		}

		switch {
		case s.config.IsSourceFile(path):
			inputs.Sources = append(inputs.Sources, path)
		case isBuildFile(d.Name(), s.config.Mapping.BuildFiles):
			inputs.BuildFiles = append(inputs.BuildFiles, path)
		case relPath == kconfigName:
			inputs.KconfigFile = path
		}

		return nil
	})

	return inputs, walkErr
}

func isBuildFile(name string, buildFiles []string) bool {
	for _, bf := range buildFiles {
		if name == bf {
			return true
		}
	}
	return false
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	if !strings.HasPrefix(absPath, root+string(filepath.Separator)) && absPath != root {
		return false
	}

	return true
}
