package hash

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("my-secret-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hashed == "my-secret-password" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !CheckPassword("my-secret-password", hashed) {
		t.Error("correct password should verify")
	}
	if CheckPassword("wrong-password", hashed) {
		t.Error("wrong password should not verify")
	}
}
