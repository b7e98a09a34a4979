package search

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// overridePattern matches "restrict searches to X, Y" and "only search in X".
var overridePattern = regexp.MustCompile(
	`(?i)[,;.]?\s*\b(?:restrict(?:\s+(?:the|my))?\s+search(?:es|ing)?\s+to|only\s+search\s+(?:in|within|under))\s+(.+)$`)

var targetSeparator = regexp.MustCompile(`(?i)\s*(?:,|;|\band\b|\bor\b)\s*`)

// ParseOverride extracts an explicit directory restriction from query.
// Returns the query with the phrase removed and the named targets, or the
// query unchanged and no targets when no phrase is present.
func ParseOverride(query string) (string, []string) {
	loc := overridePattern.FindStringSubmatchIndex(query)
	if loc == nil {
		return query, nil
	}

	var targets []string
	for _, part := range targetSeparator.Split(query[loc[2]:loc[3]], -1) {
		part = strings.TrimSpace(strings.Trim(strings.TrimSpace(part), "\"'`.!?"))
		part = strings.TrimPrefix(part, "the ")
		if part != "" {
			targets = append(targets, part)
		}
	}

	cleaned := strings.TrimSpace(query[:loc[0]] + query[loc[1]:])
	cleaned = strings.TrimRight(cleaned, " ,;:")
	if cleaned == "" {
		cleaned = query
	}
	return cleaned, targets
}

// resolveTargets turns override targets into existing directories.
// A target is an absolute or home-relative path, a path relative to a root,
// or the case-insensitive name of an immediate subdirectory of a root.
func resolveTargets(targets, roots []string) []string {
	var dirs []string
	for _, target := range targets {
		dirs = append(dirs, resolveTarget(target, roots)...)
	}
	return dirs
}

func resolveTarget(target string, roots []string) []string {
	if strings.HasPrefix(target, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			target = filepath.Join(home, strings.TrimPrefix(target, "~"))
		}
	}
	if filepath.IsAbs(target) {
		if isDir(target) {
			return []string{filepath.Clean(target)}
		}
		return nil
	}

	var dirs []string
	for _, root := range roots {
		candidate := filepath.Join(root, target)
		if isDir(candidate) {
			dirs = append(dirs, candidate)
			continue
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() && strings.EqualFold(entry.Name(), target) {
				dirs = append(dirs, filepath.Join(root, entry.Name()))
			}
		}
	}
	return dirs
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
