package httpapi

import (
	"context"
	"testing"
	"time"

	"staffledger/backend/internal/domain"
	"staffledger/backend/internal/store/memory"
)

func newTestAuthManager(t *testing.T) (*AuthManager, *memory.Store) {
	t.Helper()
	repo := memory.New()
	err := repo.CreateUser(context.Background(), domain.UserAccount{
		Username:  "admin",
		Password:  "admin-secret",
		Role:      domain.RoleAdmin,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return NewAuthManager("test-secret-key-0123456789abcdef", time.Hour, repo), repo
}

func TestLoginAndParseToken(t *testing.T) {
	auth, _ := newTestAuthManager(t)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin-secret"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected non-empty access token")
	}
	if resp.Role != domain.RoleAdmin {
		t.Fatalf("expected role admin, got %q", resp.Role)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "admin" || actor.Role != domain.RoleAdmin {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth, _ := newTestAuthManager(t)

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "nope"}); err == nil {
		t.Fatal("expected error for wrong password")
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "ghost", Password: "admin-secret"}); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestLoginNormalizesUsername(t *testing.T) {
	auth, _ := newTestAuthManager(t)

	if _, err := auth.Login(domain.LoginRequest{Username: "  ADMIN ", Password: "admin-secret"}); err != nil {
		t.Fatalf("expected normalized login to succeed, got %v", err)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth, _ := newTestAuthManager(t)

	if _, err := auth.ParseToken("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	auth, _ := newTestAuthManager(t)
	other := NewAuthManager("another-secret-entirely-different", time.Hour, nil)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin-secret"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := other.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}

func TestCreateUserValidation(t *testing.T) {
	auth, _ := newTestAuthManager(t)

	cases := []struct {
		name string
		req  domain.UserCreateRequest
	}{
		{"short username", domain.UserCreateRequest{Username: "ab", Password: "secret123", Role: domain.RoleStaff}},
		{"short password", domain.UserCreateRequest{Username: "kasir1", Password: "123", Role: domain.RoleStaff}},
		{"bad role", domain.UserCreateRequest{Username: "kasir1", Password: "secret123", Role: "owner"}},
		{"duplicate", domain.UserCreateRequest{Username: "admin", Password: "secret123", Role: domain.RoleStaff}},
	}
	for _, tc := range cases {
		if _, err := auth.CreateUser(tc.req); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestCreateUserPersistsAndCanLogin(t *testing.T) {
	auth, repo := newTestAuthManager(t)

	user, err := auth.CreateUser(domain.UserCreateRequest{Username: "Kasir1", Password: "secret123", Role: domain.RoleStaff})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Username != "kasir1" {
		t.Fatalf("expected lowercased username, got %q", user.Username)
	}

	stored, err := repo.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	found := false
	for _, account := range stored {
		if account.Username == "kasir1" {
			found = true
			if !isPasswordHash(account.Password) {
				t.Fatal("stored password must be hashed")
			}
		}
	}
	if !found {
		t.Fatal("created user not found in store")
	}

	if _, err := auth.Login(domain.LoginRequest{Username: "kasir1", Password: "secret123"}); err != nil {
		t.Fatalf("new user login failed: %v", err)
	}
}

func TestBootstrapUpgradesPlainTextPasswords(t *testing.T) {
	auth, repo := newTestAuthManager(t)

	// The seed account was stored plain text; bootstrap in NewAuthManager
	// should have rewritten it as a bcrypt hash.
	_ = auth
	stored, err := repo.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 user, got %d", len(stored))
	}
	if !isPasswordHash(stored[0].Password) {
		t.Fatalf("expected upgraded hash, got %q", stored[0].Password)
	}
}

func TestListUsersSorted(t *testing.T) {
	auth, _ := newTestAuthManager(t)

	if _, err := auth.CreateUser(domain.UserCreateRequest{Username: "zulfa", Password: "secret123", Role: domain.RoleStaff}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := auth.CreateUser(domain.UserCreateRequest{Username: "bayu1", Password: "secret123", Role: domain.RoleStaff}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	users := auth.ListUsers()
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	for i := 1; i < len(users); i++ {
		if users[i-1].Username > users[i].Username {
			t.Fatalf("users not sorted: %q before %q", users[i-1].Username, users[i].Username)
		}
	}
}
