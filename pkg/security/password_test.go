package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/earnpro/rewards-backend/pkg/config"
	"github.com/earnpro/rewards-backend/pkg/security"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestNeedsRehash(t *testing.T) {
	weak := config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	strong := config.PasswordConfig{ArgonMemoryKB: 65536, ArgonTime: 3, ArgonParallelism: 2, ArgonSaltLen: 16, ArgonKeyLen: 32}

	hash, err := security.HashPassword("admin-password", weak)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	needs, err := security.NeedsRehash(hash, strong)
	if err != nil {
		t.Fatalf("NeedsRehash returned error: %v", err)
	}
	if !needs {
		t.Fatal("expected weak hash to need rehash")
	}

	needs, err = security.NeedsRehash(hash, weak)
	if err != nil {
		t.Fatalf("NeedsRehash returned error: %v", err)
	}
	if needs {
		t.Fatal("expected matching params to not need rehash")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := security.HashPassword("", config.PasswordConfig{}); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyPasswordRejectsForeignVersion(t *testing.T) {
	hash, err := security.HashPassword("admin-password", config.PasswordConfig{})
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash prefix %q", hash)
	}
	foreign := strings.Replace(hash, "v=19", "v=16", 1)
	if _, err := security.VerifyPassword("admin-password", foreign); !errors.Is(err, security.ErrIncompatibleVersion) {
		t.Fatalf("expected ErrIncompatibleVersion, got %v", err)
	}
}

func TestParamsFromConfigBoundsCosts(t *testing.T) {
	params := security.ParamsFromConfig(config.PasswordConfig{ArgonMemoryKB: 1 << 30, ArgonTime: 0, ArgonKeyLen: 4})
	if params.Memory != 512*1024 {
		t.Fatalf("memory not capped: %d", params.Memory)
	}
	if params.Time != 1 || params.Parallelism != 1 || params.KeyLen != 16 || params.SaltLen != 8 {
		t.Fatalf("unexpected lower bounds %+v", params)
	}
}
