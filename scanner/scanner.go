// Package scanner walks a graph's local directory tree, applying the
// ignore rules and producing the per-file metadata records the sync
// orchestrator needs (spec.md §4.4).
package scanner

import (
	"context"
	"crypto/md5" //nolint:gosec // wire-protocol checksum, not a security boundary.
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/logseq/rsapi/errors"
)

const chunkSize = 1 << 20 // 1 MiB, per spec.md §4.4

// FileMeta is the per-file metadata record of spec.md §3.
type FileMeta struct {
	Size          int64
	ModifiedMs    int64
	CreatedMs     int64
	MD5Hex        string
	IncomingPath  string
	CanonicalPath string
	NFCPath       string
	EncryptedName string
}

// ScanError distinguishes a total scan failure (base path missing or
// not a directory) from the per-file failures get_all_files_meta
// silently drops, per §9's design note.
type ScanError struct {
	BasePath string
	Err      error
}

func (e *ScanError) Error() string {
	return "scan of " + e.BasePath + " failed: " + e.Err.Error()
}

func (e *ScanError) Unwrap() error { return e.Err }

// EncryptFilenameFunc encrypts a canonical NFC path into its on-wire
// encrypted name; scanner is crypto-agnostic and takes this as a
// dependency rather than importing cryptoengine directly, so it can be
// tested without real keys.
type EncryptFilenameFunc func(canonicalNFCPath string) (string, error)

// IsIgnored reports whether relPath (forward-slash, no leading slash)
// is excluded from scanning per spec.md §3's ignore rules.
func IsIgnored(relPath string) bool {
	if strings.HasPrefix(relPath, ".") || strings.Contains(relPath, "/.") {
		return true
	}
	if strings.HasPrefix(relPath, "logseq/bak/") || strings.HasPrefix(relPath, "logseq/version-files/") {
		return true
	}
	return false
}

// canonicalRelPath renders full (an absolute, cleaned path under base)
// as the forward-slash relative path spec.md §3 describes: no leading
// slash, backslashes normalized.
func canonicalRelPath(base, full string) string {
	rel, err := filepath.Rel(base, full)
	if err != nil {
		rel = full
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimPrefix(rel, "/")
}

// readFileMeta reads path in 1 MiB chunks, hashing its body with MD5
// and counting the bytes actually read (not the filesystem-reported
// size, per §4.4).
func readFileMeta(path string) (size int64, md5Hex string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	h := md5.New()
	buf := make([]byte, chunkSize)
	var total int64
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			total += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return 0, "", readErr
		}
	}
	return total, hex.EncodeToString(h.Sum(nil)), nil
}

func buildMeta(base, fullPath, incomingPath string, encryptName EncryptFilenameFunc) (FileMeta, error) {
	size, md5Hex, err := readFileMeta(fullPath)
	if err != nil {
		return FileMeta{}, err
	}

	info, statErr := os.Stat(fullPath)
	var modifiedMs, createdMs int64
	if statErr == nil {
		modifiedMs = info.ModTime().UnixMilli()
		createdMs = modifiedMs
	}

	canonical := canonicalRelPath(base, fullPath)
	nfc := norm.NFC.String(canonical)
	encrypted, err := encryptName(nfc)
	if err != nil {
		return FileMeta{}, err
	}

	return FileMeta{
		Size:          size,
		ModifiedMs:    modifiedMs,
		CreatedMs:     createdMs,
		MD5Hex:        md5Hex,
		IncomingPath:  incomingPath,
		CanonicalPath: canonical,
		NFCPath:       nfc,
		EncryptedName: encrypted,
	}, nil
}

// GetFilesMeta fans out one metadata read per entry in paths
// (relative to base); a failing entry is silently dropped, matching
// spec.md §4.4.
func GetFilesMeta(ctx context.Context, base string, paths []string, encryptName EncryptFilenameFunc, logger *logrus.Logger) (map[string]FileMeta, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindIO, err)
	}

	results := make(map[string]FileMeta)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, p := range paths {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			default:
			}
			full := filepath.Join(absBase, filepath.FromSlash(p))
			meta, err := buildMeta(absBase, full, p, encryptName)
			if err != nil {
				if logger != nil {
					logger.WithFields(logrus.Fields{"path": p, "error": err.Error()}).Debug("dropping unreadable file from scan")
				}
				return
			}
			mu.Lock()
			results[p] = meta
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results, nil
}

// GetAllFilesMeta walks base recursively, applying the ignore rules,
// then fans out the same per-file metadata read as GetFilesMeta. A
// base path that does not exist or is not a directory is a total
// failure (*ScanError), distinct from the per-file drops during the
// walk.
func GetAllFilesMeta(ctx context.Context, base string, encryptName EncryptFilenameFunc, logger *logrus.Logger) (map[string]FileMeta, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return nil, &ScanError{BasePath: base, Err: err}
	}
	info, err := os.Stat(absBase)
	if err != nil {
		return nil, &ScanError{BasePath: base, Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{BasePath: base, Err: apperrors.Msg(apperrors.KindInvalidArg, "not a directory")}
	}

	var paths []string
	walkErr := filepath.WalkDir(absBase, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // per-entry walk errors are dropped, not fatal, per §4.4/§9.
		}
		if d.IsDir() {
			return nil
		}
		rel := canonicalRelPath(absBase, path)
		if IsIgnored(rel) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if walkErr != nil {
		return nil, &ScanError{BasePath: base, Err: walkErr}
	}

	return GetFilesMeta(ctx, absBase, paths, encryptName, logger)
}
