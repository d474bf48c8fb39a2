package user

import "testing"

func TestValidateUsername(t *testing.T) {
	ok := []string{"alice1", "alice_01", "a1234", "john-doe", "alice.dev"}
	for _, v := range ok {
		if err := ValidateUsername(v); err != nil {
			t.Fatalf("expected valid username %q: %v", v, err)
		}
	}
	bad := []string{"", "1alice", "a", "ab", "a_", "a..", "a*", "toolongusername_over_32_chars_abc"}
	for _, v := range bad {
		if err := ValidateUsername(v); err == nil {
			t.Fatalf("expected invalid username %q", v)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("alice@example.com"); err != nil {
		t.Fatalf("expected valid email: %v", err)
	}
	for _, v := range []string{"", "alice", "Alice <alice@example.com>", "@example.com"} {
		if err := ValidateEmail(v); err == nil {
			t.Fatalf("expected invalid email %q", v)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("vault2024", "alice"); err != nil {
		t.Fatalf("expected valid password: %v", err)
	}
	if err := ValidatePassword("abc123", "alice"); err == nil {
		t.Fatalf("expected error for short password")
	}
	if err := ValidatePassword("onlyletters", "alice"); err == nil {
		t.Fatalf("expected error for missing digit")
	}
	if err := ValidatePassword("1234567890", "alice"); err == nil {
		t.Fatalf("expected error for missing letter")
	}
	if err := ValidatePassword("Alice12345", "alice"); err == nil {
		t.Fatalf("expected error for containing username")
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("vault2024")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "vault2024") {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword(hash, "vault2025") {
		t.Fatalf("expected wrong password to fail")
	}
	if VerifyPassword("", "vault2024") {
		t.Fatalf("expected empty hash to fail")
	}
}

func TestValidateRole(t *testing.T) {
	if err := ValidateRole(RoleUser); err != nil {
		t.Fatalf("expected USER to be valid: %v", err)
	}
	if err := ValidateRole("OPERATOR"); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
}
