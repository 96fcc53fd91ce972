package helpers

import "testing"

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "secret1" {
		t.Fatal("password stored in clear")
	}
	if !CompareHashAndPassword(hash, "secret1") {
		t.Fatal("expected match")
	}
	if CompareHashAndPassword(hash, "secret2") {
		t.Fatal("expected mismatch")
	}
}

func TestHashPasswordTooLong(t *testing.T) {
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := HashPassword(string(long)); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if CompareHashAndPassword("$2a$10$invalid", "secret1") {
		t.Fatal("malformed hash must not match")
	}
}
