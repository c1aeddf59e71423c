package crypto

import (
	"encoding/base64"
	"errors"
	"strings"
)

const envelopeVersion = "v1"

var ErrMalformedEnvelope = errors.New("crypto: malformed sealed value")

var b64 = base64.RawStdEncoding

// Seal encrypts plaintext for storage in a text column:
//
//	v1:<kid>:<b64 wrapped data key>:<b64 ciphertext>
//
// aad binds the value to its owner, e.g. "nvr:12".
func (k *Keyring) Seal(plaintext, aad []byte) (string, error) {
	dek, err := NewKey()
	if err != nil {
		return "", err
	}
	kid, wrapped, err := k.wrap(dek, aad)
	if err != nil {
		return "", err
	}
	box, err := seal(dek, plaintext, aad)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{envelopeVersion, kid, b64.EncodeToString(wrapped), b64.EncodeToString(box)}, ":"), nil
}

// Open decrypts a value produced by Seal under any key still in the keyring.
func (k *Keyring) Open(sealed string, aad []byte) ([]byte, error) {
	parts := strings.Split(sealed, ":")
	if len(parts) != 4 || parts[0] != envelopeVersion {
		return nil, ErrMalformedEnvelope
	}
	wrapped, err := b64.DecodeString(parts[2])
	if err != nil {
		return nil, ErrMalformedEnvelope
	}
	box, err := b64.DecodeString(parts[3])
	if err != nil {
		return nil, ErrMalformedEnvelope
	}

	dek, err := k.unwrap(parts[1], wrapped, aad)
	if err != nil {
		return nil, err
	}
	return open(dek, box, aad)
}
