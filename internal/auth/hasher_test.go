package auth_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/technosupport/vms-inventory/internal/auth"
)

var testParams = auth.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHasher(t *testing.T) {
	h := auth.NewHasher(testParams)
	password := "correct-horse-battery-staple"

	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("Expected argon2id prefix, got %s", hash)
	}

	match, err := h.Verify(password, hash)
	if err != nil {
		t.Errorf("Verify returned error: %v", err)
	}
	if !match {
		t.Errorf("Password did not match hash")
	}

	match, err = h.Verify("wrong-password", hash)
	if err != nil {
		t.Errorf("Verify returned error: %v", err)
	}
	if match {
		t.Errorf("Wrong password matched hash")
	}
}

func TestHasher_VerifiesOlderParams(t *testing.T) {
	old, _ := auth.NewHasher(testParams).Hash("pw")

	newer := testParams
	newer.Memory = 2048
	ok, err := auth.NewHasher(newer).Verify("pw", old)
	if err != nil || !ok {
		t.Errorf("Expected hash with older params to verify, got %v %v", ok, err)
	}
}

func TestHasher_Malformed(t *testing.T) {
	if _, err := auth.NewHasher(testParams).Verify("pw", "plain-text"); err != auth.ErrInvalidHash {
		t.Errorf("Expected ErrInvalidHash, got %v", err)
	}
}

func TestHasher_NeedsRehash(t *testing.T) {
	h := auth.NewHasher(testParams)
	current, _ := h.Hash("pw")
	if h.NeedsRehash(current) {
		t.Error("hash with current params flagged for rehash")
	}

	weaker := testParams
	weaker.Memory = 512
	old, _ := auth.NewHasher(weaker).Hash("pw")
	if !h.NeedsRehash(old) {
		t.Error("hash with older params not flagged")
	}
	if !h.NeedsRehash("plain-text") {
		t.Error("malformed hash not flagged")
	}
}

func TestHasher_BadVersion(t *testing.T) {
	hash, _ := auth.NewHasher(testParams).Hash("pw")
	bad := strings.Replace(hash, "v=19", "v=16", 1)
	if _, err := auth.NewHasher(testParams).Verify("pw", bad); !errors.Is(err, auth.ErrInvalidHash) {
		t.Errorf("Expected ErrInvalidHash, got %v", err)
	}
}
