package filesearch

import (
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Limits bounds the cost of a single search call.
type Limits struct {
	// Timeout caps the wall-clock time of one call. Zero disables the cap.
	Timeout time.Duration

	// MaxDepth is the directory recursion limit for content search.
	// Depth 1 means only files directly inside the searched directory. Zero is unlimited.
	MaxDepth int

	// MaxFileSize skips files larger than this many bytes during content search. Zero is unlimited.
	MaxFileSize int64

	// ExcludeDirs are directory names never descended into.
	ExcludeDirs []string

	// BinaryExtensions are lowercase file extensions (with dot) never content-searched.
	BinaryExtensions []string
}

// DefaultExcludeDirs lists version-control metadata, dependency caches and build output.
var DefaultExcludeDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "bower_components", "vendor",
	"__pycache__", ".venv", "venv", ".tox", ".mypy_cache", ".pytest_cache",
	"build", "dist", "target", ".gradle",
	".cache", ".idea", ".vscode", ".Trash",
}

// DefaultBinaryExtensions lists image, audio, video, archive and object file extensions.
var DefaultBinaryExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".ico", ".heic", ".webp", ".psd",
	".mp3", ".wav", ".flac", ".aac", ".ogg", ".m4a", ".aiff",
	".mp4", ".mov", ".avi", ".mkv", ".webm", ".wmv", ".m4v",
	".zip", ".tar", ".gz", ".tgz", ".bz2", ".xz", ".7z", ".rar", ".dmg", ".iso",
	".exe", ".dll", ".so", ".dylib", ".bin", ".o", ".a", ".class", ".pyc", ".jar",
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		Timeout:          30 * time.Second,
		MaxDepth:         10,
		MaxFileSize:      10 << 20,
		ExcludeDirs:      slices.Clone(DefaultExcludeDirs),
		BinaryExtensions: slices.Clone(DefaultBinaryExtensions),
	}
}

// ExcludesDir reports whether a directory with the given base name must be skipped.
func (l Limits) ExcludesDir(name string) bool {
	for _, pattern := range l.ExcludeDirs {
		if strings.EqualFold(pattern, name) {
			return true
		}
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// binaryFile reports whether the file's extension marks it as binary media.
func (l Limits) binaryFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	return slices.Contains(l.BinaryExtensions, ext)
}
