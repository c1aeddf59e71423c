package crypto

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSealOpenBox(t *testing.T) {
	key, _ := NewKey()

	box, err := seal(key, []byte("secret payload"), []byte("nvr:1"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	got, err := open(key, box, []byte("nvr:1"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(got, []byte("secret payload")) {
		t.Errorf("got %q", got)
	}
}

func TestOpenBox_Rejects(t *testing.T) {
	key, _ := NewKey()
	other, _ := NewKey()
	box, _ := seal(key, []byte("secret"), []byte("nvr:1"))

	tampered := append([]byte(nil), box...)
	tampered[len(tampered)-1] ^= 0xFF

	tests := []struct {
		name string
		key  []byte
		box  []byte
		aad  string
		want error
	}{
		{"wrong aad", key, box, "nvr:2", ErrOpen},
		{"wrong key", other, box, "nvr:1", ErrOpen},
		{"tampered", key, tampered, "nvr:1", ErrOpen},
		{"truncated", key, box[:8], "nvr:1", ErrMalformedEnvelope},
		{"short key", key[:16], box, "nvr:1", ErrKeySize},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := open(tc.key, tc.box, []byte(tc.aad)); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func testKeys(t *testing.T, kids ...string) string {
	t.Helper()
	var keys []MasterKey
	for _, kid := range kids {
		k, _ := NewKey()
		keys = append(keys, MasterKey{KID: kid, Material: base64.StdEncoding.EncodeToString(k)})
	}
	b, _ := json.Marshal(keys)
	return string(b)
}

func TestKeyring_Load(t *testing.T) {
	kr := NewKeyring()
	if err := kr.Load(testKeys(t, "k1", "k2"), "k2"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if kr.Active() != "k2" {
		t.Errorf("active = %q", kr.Active())
	}

	short := `[{"kid":"bad","material":"` + base64.StdEncoding.EncodeToString([]byte("short")) + `"}]`
	failures := map[string][2]string{
		"empty set":      {"", "k1"},
		"empty active":   {testKeys(t, "k1"), ""},
		"not json":       {"{", "k1"},
		"short material": {short, "bad"},
		"missing active": {testKeys(t, "a"), "b"},
		"duplicate kid":  {testKeys(t, "a", "a"), "a"},
	}
	for name, in := range failures {
		if err := NewKeyring().Load(in[0], in[1]); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	// A failed reload leaves the previous keys in place.
	if err := kr.Load(short, "bad"); err == nil || !strings.Contains(err.Error(), "invalid key length") {
		t.Fatalf("expected invalid length error, got %v", err)
	}
	if kr.Active() != "k2" {
		t.Errorf("active changed to %q after failed load", kr.Active())
	}
}

func TestKeyring_SealOpen(t *testing.T) {
	kr := NewKeyring()
	keys := testKeys(t, "old", "new")
	if err := kr.Load(keys, "old"); err != nil {
		t.Fatal(err)
	}

	sealed, err := kr.Seal([]byte("nvr-admin-pass"), []byte("nvr:7"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if strings.Contains(sealed, "nvr-admin-pass") {
		t.Fatal("sealed value leaks plaintext")
	}
	if !strings.HasPrefix(sealed, "v1:old:") {
		t.Errorf("unexpected envelope prefix: %s", sealed)
	}

	// Rotation: new active key, old values still open.
	if err := kr.Load(keys, "new"); err != nil {
		t.Fatal(err)
	}
	plain, err := kr.Open(sealed, []byte("nvr:7"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(plain) != "nvr-admin-pass" {
		t.Errorf("got %q", plain)
	}

	if _, err := kr.Open(sealed, []byte("nvr:8")); !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen for other aad, got %v", err)
	}
	if _, err := kr.Open("garbage", nil); err != ErrMalformedEnvelope {
		t.Errorf("expected ErrMalformedEnvelope, got %v", err)
	}
	if _, err := kr.Open("v1:old:!!:!!", nil); err != ErrMalformedEnvelope {
		t.Errorf("expected ErrMalformedEnvelope for bad base64, got %v", err)
	}

	retired := NewKeyring()
	if err := retired.Load(testKeys(t, "new"), "new"); err != nil {
		t.Fatal(err)
	}
	if _, err := retired.Open(sealed, []byte("nvr:7")); !errors.Is(err, ErrUnknownKID) {
		t.Errorf("expected ErrUnknownKID, got %v", err)
	}
}
