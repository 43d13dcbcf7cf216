package cryptoengine

import (
	"strings"

	"filippo.io/age"
	"github.com/btcsuite/btcutil/bech32"

	apperrors "github.com/logseq/rsapi/errors"
)

// identityScalar recovers the raw 32-byte X25519 scalar backing an age
// identity. age's own string encoding already *is* that scalar: an
// X25519 identity's bech32 form is "AGE-SECRET-KEY-1" followed by the
// bech32 encoding of the 32 raw bytes, nothing else. Re-deriving the
// scalar from identity.String() avoids reaching into age's unexported
// fields.
func identityScalar(identity *age.X25519Identity) ([32]byte, error) {
	hrp, data, err := bech32.Decode(identity.String())
	if err != nil {
		return [32]byte{}, apperrors.Wrap(apperrors.KindParseKey, err)
	}
	if !strings.EqualFold(hrp, "age-secret-key-") {
		return [32]byte{}, apperrors.Msg(apperrors.KindParseKey, "unexpected identity HRP %q", hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return [32]byte{}, apperrors.Wrap(apperrors.KindParseKey, err)
	}
	if len(raw) != 32 {
		return [32]byte{}, apperrors.Msg(apperrors.KindParseKey, "decoded identity is %d bytes, want 32", len(raw))
	}
	var scalar [32]byte
	copy(scalar[:], raw)
	return scalar, nil
}
