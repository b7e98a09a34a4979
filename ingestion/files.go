package ingestion

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/fileoracle/extract"
	"github.com/poiesic/fileoracle/filesearch"
)

// NormalizeExtensions lowercases extensions and ensures a leading dot.
// An empty list means every extension the extractor supports.
func NormalizeExtensions(extensions []string) []string {
	if len(extensions) == 0 {
		return extract.SupportedExtensions()
	}
	out := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !slices.Contains(out, ext) {
			out = append(out, ext)
		}
	}
	return out
}

// HasExtension reports whether path ends in one of the normalized extensions.
func HasExtension(path string, extensions []string) bool {
	return slices.Contains(extensions, strings.ToLower(filepath.Ext(path)))
}

// CollectFiles lists files under root with one of extensions, skipping hidden
// entries and the directories limits excludes. Paths are returned in walk order.
func CollectFiles(ctx context.Context, root string, extensions []string, limits filesearch.Limits) ([]string, error) {
	extensions = NormalizeExtensions(extensions)
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || limits.ExcludesDir(name)) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() {
			return nil
		}
		if HasExtension(path, extensions) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ResolveFiles expands directories and glob patterns into a deduplicated
// file list in argument order. Directories are walked with CollectFiles.
// Remote document references and patterns without glob metacharacters are
// passed through unchanged so missing files surface as per-file failures.
func ResolveFiles(ctx context.Context, dirs, patterns, extensions []string, limits filesearch.Limits) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(paths ...string) {
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				files = append(files, p)
			}
		}
	}

	for _, dir := range dirs {
		found, err := CollectFiles(ctx, dir, extensions, limits)
		if err != nil {
			return nil, err
		}
		add(found...)
	}
	for _, pattern := range patterns {
		if isRemote(pattern) || !strings.ContainsAny(pattern, "*?[") {
			add(pattern)
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		add(matches...)
	}
	return files, nil
}
