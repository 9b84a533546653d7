package application

import (
	"errors"
	"strings"
	"testing"
)

// fastArgon2idParams keeps hashing cheap in tests.
var fastArgon2idParams = Argon2idParams{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestCreatePasswordHashRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("secret123", fastArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("hash %q is not in PHC format", hash)
	}

	if err := VerifyPassword(hash, "secret123"); err != nil {
		t.Fatalf("VerifyPassword rejected the original password: %v", err)
	}
	if err := VerifyPassword(hash, "secret124"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("VerifyPassword = %v, want ErrInvalidCredentials", err)
	}
}

func TestCreatePasswordHashUsesUniqueSalts(t *testing.T) {
	t.Parallel()

	first, err := CreatePasswordHash("secret123", fastArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	second, err := CreatePasswordHash("secret123", fastArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	t.Parallel()

	if err := VerifyPassword("plaintext", "secret123"); !errors.Is(err, ErrInvalidPasswordHash) {
		t.Fatalf("VerifyPassword = %v, want ErrInvalidPasswordHash", err)
	}
	if err := VerifyPassword("$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA", "secret123"); !errors.Is(err, ErrInvalidPasswordHash) {
		t.Fatalf("VerifyPassword = %v, want ErrInvalidPasswordHash for wrong algorithm", err)
	}
}
