// Package crypto seals NVR credentials at rest with envelope encryption:
// each value gets its own data key, and the data key is wrapped by one of
// the configured master keys.
package crypto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownKID = errors.New("crypto: master key id not in keyring")
	ErrNoActive   = errors.New("crypto: no active master key")
)

// MasterKey is one entry of the MASTER_KEYS JSON array.
type MasterKey struct {
	KID      string `json:"kid"`
	Material string `json:"material"` // base64, KeySize bytes
}

type Keyring struct {
	keys   map[string][]byte
	active string
}

func NewKeyring() *Keyring {
	return &Keyring{keys: map[string][]byte{}}
}

// Load replaces the keyring contents. Retired keys stay listed so values they
// wrapped can still be opened; only active is used for new values.
func (k *Keyring) Load(keysJSON, active string) error {
	if keysJSON == "" {
		return errors.New("crypto: master key set is empty")
	}
	if active == "" {
		return errors.New("crypto: active master key id is empty")
	}

	var entries []MasterKey
	if err := json.Unmarshal([]byte(keysJSON), &entries); err != nil {
		return fmt.Errorf("crypto: parse master keys: %w", err)
	}

	keys := make(map[string][]byte, len(entries))
	for _, e := range entries {
		if e.KID == "" {
			return errors.New("crypto: master key without kid")
		}
		if _, dup := keys[e.KID]; dup {
			return fmt.Errorf("crypto: duplicate master key %q", e.KID)
		}
		raw, err := base64.StdEncoding.DecodeString(e.Material)
		if err != nil {
			return fmt.Errorf("crypto: master key %q: %w", e.KID, err)
		}
		if len(raw) != KeySize {
			return fmt.Errorf("crypto: master key %q: invalid key length %d", e.KID, len(raw))
		}
		keys[e.KID] = raw
	}
	if _, ok := keys[active]; !ok {
		return fmt.Errorf("crypto: active key %q not in master keys", active)
	}

	k.keys, k.active = keys, active
	return nil
}

// Active reports the id new values are wrapped with.
func (k *Keyring) Active() string { return k.active }

func (k *Keyring) wrap(dek, aad []byte) (string, []byte, error) {
	master, ok := k.keys[k.active]
	if !ok {
		return "", nil, ErrNoActive
	}
	box, err := seal(master, dek, aad)
	return k.active, box, err
}

func (k *Keyring) unwrap(kid string, box, aad []byte) ([]byte, error) {
	master, ok := k.keys[kid]
	if !ok {
		return nil, ErrUnknownKID
	}
	return open(master, box, aad)
}
