package cryptoengine

import (
	"bytes"
	"io"

	"filippo.io/age"
	"filippo.io/age/armor"

	apperrors "github.com/logseq/rsapi/errors"
)

const (
	armorHeader  = "-----BEGIN AGE ENCRYPTED FILE-----"
	binaryHeader = "age-encryption.org/v1\n"
	// scryptMaxWorkFactor raises age's default decrypt-time ceiling so
	// passphrase-protected key material encrypted with a deliberately
	// strong KDF setting still decrypts. 30 is the highest value
	// ScryptIdentity.SetMaxWorkFactor accepts; larger values panic.
	scryptMaxWorkFactor = 30
)

// EncryptX25519 encrypts raw for recipient's X25519 public key, writing
// binary age output. Graph-scoped content always travels binary on the
// wire; only passphrase-protected key material is armored.
func EncryptX25519(raw []byte, publicKey string) ([]byte, error) {
	recipient, err := age.ParseX25519Recipient(publicKey)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindParseKey, err)
	}
	return encryptBinary(raw, recipient)
}

// DecryptX25519 decrypts an age payload (armored or binary) using the
// given secret key.
func DecryptX25519(blob []byte, secretKey string) ([]byte, error) {
	identity, err := age.ParseX25519Identity(secretKey)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindParseKey, err)
	}
	return decryptAny(blob, identity)
}

// EncryptPassphrase encrypts raw under a scrypt-derived key.
func EncryptPassphrase(raw []byte, passphrase string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindEncrypt, err)
	}
	return encryptArmored(raw, recipient)
}

// DecryptPassphrase decrypts an age payload encrypted with
// EncryptPassphrase.
func DecryptPassphrase(blob []byte, passphrase string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindParseKey, err)
	}
	identity.SetMaxWorkFactor(scryptMaxWorkFactor)
	return decryptAny(blob, identity)
}

func encryptArmored(raw []byte, recipient age.Recipient) ([]byte, error) {
	var buf bytes.Buffer
	armorWriter := armor.NewWriter(&buf)
	w, err := age.Encrypt(armorWriter, recipient)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindEncrypt, err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, apperrors.Wrap(apperrors.KindEncrypt, err)
	}
	if err := w.Close(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindEncrypt, err)
	}
	if err := armorWriter.Close(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindEncrypt, err)
	}
	return buf.Bytes(), nil
}

func encryptBinary(raw []byte, recipient age.Recipient) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindEncrypt, err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, apperrors.Wrap(apperrors.KindEncrypt, err)
	}
	if err := w.Close(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindEncrypt, err)
	}
	return buf.Bytes(), nil
}

func decryptAny(blob []byte, identity age.Identity) ([]byte, error) {
	var src io.Reader = bytes.NewReader(blob)
	if IsArmored(blob) {
		src = armor.NewReader(src)
	}
	r, err := age.Decrypt(src, identity)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDecrypt, err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDecrypt, err)
	}
	return out, nil
}

// IsArmored reports whether blob begins with age's ASCII armor header.
func IsArmored(blob []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(blob, "\r\n\t "), []byte(armorHeader))
}

// IsEncrypted reports whether blob is already an age payload (armored
// or binary), so EncryptContent/DecryptContent can be idempotent: a
// file that is already encrypted is left untouched by a second
// encrypt, and a file that is still plaintext is left untouched by a
// decrypt.
func IsEncrypted(blob []byte) bool {
	if IsArmored(blob) {
		return true
	}
	return bytes.HasPrefix(blob, []byte(binaryHeader))
}

// EncryptContent encrypts raw for publicKey unless it is already an
// age payload, in which case it is returned unchanged.
func EncryptContent(raw []byte, publicKey string) ([]byte, error) {
	if IsEncrypted(raw) {
		return raw, nil
	}
	return EncryptX25519(raw, publicKey)
}

// DecryptContent decrypts blob with secretKey unless it is not an age
// payload, in which case it is returned unchanged.
func DecryptContent(blob []byte, secretKey string) ([]byte, error) {
	if !IsEncrypted(blob) {
		return blob, nil
	}
	return DecryptX25519(blob, secretKey)
}
