package cryptoengine

import (
	"crypto/md5" //nolint:gosec // MD5 is the wire-protocol checksum, not a security boundary.
	"encoding/hex"
)

// MD5Digest returns the raw 16-byte MD5 digest of raw.
func MD5Digest(raw []byte) [16]byte {
	return md5.Sum(raw)
}

// MD5Hex returns the lowercase-hex MD5 digest of raw, as used for the
// file-metadata checksum and the update_files checksum triple.
func MD5Hex(raw []byte) string {
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}
