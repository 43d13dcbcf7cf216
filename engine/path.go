package engine

import (
	"path/filepath"
	"strings"

	apperrors "github.com/logseq/rsapi/errors"
)

// windowsUNCPrefix is the extended-length path prefix Windows
// sometimes prepends ("\\?\C:\..."); canonical paths strip it so
// hosts get a plain absolute path regardless of platform.
const windowsUNCPrefix = `\\?\`

// CanonicalizePath resolves path to an absolute form with any Windows
// UNC prefix stripped (§6). Symlinks are resolved when the path
// exists; a not-yet-created path falls back to its absolute form.
func (e *Engine) CanonicalizePath(path string) (string, error) {
	trimmed := strings.TrimPrefix(path, windowsUNCPrefix)

	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", e.setLastError(apperrors.Wrap(apperrors.KindInvalidArg, err))
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, nil
	}
	return resolved, nil
}
