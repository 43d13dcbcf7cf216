// Package syncops implements the five sync orchestration entry points
// of spec.md §4.3: push, fetch v2, fetch v1, version-files, and
// delete, plus the supplemental rename/diff operations.
package syncops

import (
	"os"
	"path/filepath"
	"strings"
)

// pageExtensions are the lowercase extensions that make a path a page
// file (spec.md §3 "Page file classification").
var pageExtensions = map[string]bool{
	".md":       true,
	".org":      true,
	".markdown": true,
}

// IsPageFile reports whether relPath is a page file. A path with no
// filename component (e.g. "." or "/") is treated as a non-page file
// rather than panicking, per §9's design note on the original source's
// file_name() panic.
func IsPageFile(relPath string) bool {
	name := filepath.Base(relPath)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return pageExtensions[ext]
}

const (
	baseShadowDir    = "logseq/version-files/base"
	incomingStageDir = "logseq/version-files/incoming"
	versionFilesDir  = "logseq/version-files"
)

func baseShadowPath(base, relPath string) string {
	return filepath.Join(base, filepath.FromSlash(baseShadowDir), filepath.FromSlash(relPath))
}

func incomingPath(base, relPath string) string {
	return filepath.Join(base, filepath.FromSlash(incomingStageDir), filepath.FromSlash(relPath))
}

func versionFilePath(base, id string) string {
	return filepath.Join(base, filepath.FromSlash(versionFilesDir), filepath.FromSlash(id))
}

func livePath(base, relPath string) string {
	return filepath.Join(base, filepath.FromSlash(relPath))
}

// writeFile creates any missing parent directories then writes data to
// path, matching the original client's copy-on-push/write-on-fetch
// behavior.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// copyFile duplicates src to dst, creating parent directories.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return writeFile(dst, data)
}
