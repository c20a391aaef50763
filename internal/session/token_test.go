package session

import (
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    240 * time.Hour,
	}
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	ti := NewTokenIssuer(testConfig())
	pair, err := ti.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected non-empty pair, got %+v", pair)
	}

	gotAccess, err := ti.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}
	if gotAccess != "user-123" {
		t.Fatalf("access userID mismatch: got %q want %q", gotAccess, "user-123")
	}

	gotRefresh, err := ti.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh error: %v", err)
	}
	if gotRefresh != "user-123" {
		t.Fatalf("refresh userID mismatch: got %q want %q", gotRefresh, "user-123")
	}
}

func TestIssue_UniqueValues(t *testing.T) {
	t.Parallel()

	ti := NewTokenIssuer(testConfig())
	first, err := ti.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	second, err := ti.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if first.RefreshToken == second.RefreshToken {
		t.Fatalf("two issuances produced the same refresh token")
	}
	if first.AccessToken == second.AccessToken {
		t.Fatalf("two issuances produced the same access token")
	}
}

func TestVerify_KeySeparation(t *testing.T) {
	t.Parallel()

	ti := NewTokenIssuer(testConfig())
	pair, err := ti.Issue("u2")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := ti.VerifyRefresh(pair.AccessToken); err == nil {
		t.Fatalf("access token verified with refresh secret")
	}
	if _, err := ti.VerifyAccess(pair.RefreshToken); err == nil {
		t.Fatalf("refresh token verified with access secret")
	}
}

func TestVerifyRefresh_Expired(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RefreshTTL = -1 * time.Second
	ti := NewTokenIssuer(cfg)

	pair, err := ti.Issue("u3")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := ti.VerifyRefresh(pair.RefreshToken); err == nil {
		t.Fatalf("expected error for expired refresh token, got nil")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	ti := NewTokenIssuer(testConfig())
	pair, err := ti.Issue("u4")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	other := NewTokenIssuer(Config{
		AccessSecret:  "a-different-access-secret",
		RefreshSecret: "a-different-refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	if _, err := other.VerifyAccess(pair.AccessToken); err == nil {
		t.Fatalf("expected error for foreign access token, got nil")
	}
	if _, err := other.VerifyRefresh(pair.RefreshToken); err == nil {
		t.Fatalf("expected error for foreign refresh token, got nil")
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	ti := NewTokenIssuer(testConfig())
	if _, err := ti.VerifyAccess("not.a.jwt"); err == nil {
		t.Fatalf("expected error for malformed token, got nil")
	}
	if _, err := ti.VerifyRefresh(""); err == nil {
		t.Fatalf("expected error for empty token, got nil")
	}
}
