package publish

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandMediaPaths resolves glob patterns into absolute paths of existing
// media files, preserving pattern order. Patterns without wildcards pass
// through the same existence check as matched ones.
func (p *Publisher) ExpandMediaPaths(patterns []string) ([]string, error) {
	var expandedPaths []string
	for _, pattern := range patterns {
		if !strings.Contains(pattern, "*") {
			expandedPaths = append(expandedPaths, pattern)
			continue
		}

		base, glob := doublestar.SplitPattern(pattern)
		absBase, err := p.pathModifier.AbsPath(base) // resolves ~/ and expands any envs
		if err != nil {
			return nil, err
		}
		matches, err := doublestar.Glob(os.DirFS(absBase), glob, doublestar.WithNoFollow())
		if matches == nil {
			p.logger.Warnf("No match for path pattern: %s", pattern)
			continue
		}
		if err != nil {
			p.logger.Warnf("Error in path pattern '%s': %s", pattern, err)
			continue
		}

		for _, match := range matches {
			expandedPaths = append(expandedPaths, filepath.Join(base, match))
		}
	}

	var finalPaths []string
	for _, path := range expandedPaths {
		absPath, err := p.pathModifier.AbsPath(path)
		if err != nil {
			p.logger.Warnf("Failed to parse path %s, error: %s", path, err)
			continue
		}

		exists, err := p.pathChecker.IsPathExists(absPath)
		if err != nil {
			p.logger.Warnf("Failed to check path %s, error: %s", absPath, err)
		}
		if !exists {
			p.logger.Warnf("Media path doesn't exist: %s", path)
			continue
		}

		finalPaths = append(finalPaths, absPath)
	}

	return finalPaths, nil
}
