package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityEncrypt(name string) (string, error) {
	return "e." + name, nil
}

func TestIsIgnored(t *testing.T) {
	assert.True(t, IsIgnored(".git/config"))
	assert.True(t, IsIgnored("pages/.hidden.md"))
	assert.True(t, IsIgnored("logseq/bak/old.md"))
	assert.True(t, IsIgnored("logseq/version-files/incoming/x.md"))
	assert.False(t, IsIgnored("pages/p.md"))
}

func TestGetAllFilesMetaAppliesIgnoreRules(t *testing.T) {
	base := t.TempDir()
	write := func(rel, content string) {
		full := filepath.Join(base, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	write(".git/x", "ignored")
	write("logseq/bak/old.md", "ignored")
	write("logseq/version-files/incoming/x.md", "ignored")
	write("pages/p.md", "kept")

	metas, err := GetAllFilesMeta(context.Background(), base, identityEncrypt, nil)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	meta, ok := metas["pages/p.md"]
	require.True(t, ok)
	assert.Equal(t, "pages/p.md", meta.CanonicalPath)
	assert.Equal(t, "e.pages/p.md", meta.EncryptedName)
	assert.Equal(t, int64(len("kept")), meta.Size)
}

func TestGetAllFilesMetaFailsOnMissingBase(t *testing.T) {
	_, err := GetAllFilesMeta(context.Background(), "/does/not/exist/ever", identityEncrypt, nil)
	require.Error(t, err)
	var scanErr *ScanError
	assert.ErrorAs(t, err, &scanErr)
}

func TestGetFilesMetaDropsUnreadableEntries(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "a.md"), []byte("a"), 0o644))

	metas, err := GetFilesMeta(context.Background(), base, []string{"a.md", "missing.md"}, identityEncrypt, nil)
	require.NoError(t, err)
	assert.Len(t, metas, 1)
	_, ok := metas["a.md"]
	assert.True(t, ok)
}

func TestGetAllFilesMetaMD5(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "a.md"), []byte("hello"), 0o644))

	metas, err := GetAllFilesMeta(context.Background(), base, identityEncrypt, nil)
	require.NoError(t, err)
	meta := metas["a.md"]
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", meta.MD5Hex)
}
