package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

// KeySize is the length of every master key and data key (AES-256).
const KeySize = 32

var (
	ErrKeySize = errors.New("crypto: key must be 32 bytes")
	ErrOpen    = errors.New("crypto: message authentication failed")
)

// NewKey returns KeySize random bytes.
func NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal returns nonce || ciphertext || tag.
func seal(key, plaintext, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	box := make([]byte, gcm.NonceSize(), gcm.NonceSize()+len(plaintext)+gcm.Overhead())
	if _, err := io.ReadFull(rand.Reader, box); err != nil {
		return nil, err
	}
	return gcm.Seal(box, box, plaintext, aad), nil
}

// open reverses seal. A wrong key, aad or a modified box all yield ErrOpen.
func open(key, box, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(box) < gcm.NonceSize()+gcm.Overhead() {
		return nil, ErrMalformedEnvelope
	}
	n := gcm.NonceSize()
	plaintext, err := gcm.Open(nil, box[:n], box[n:], aad)
	if err != nil {
		return nil, ErrOpen
	}
	return plaintext, nil
}
