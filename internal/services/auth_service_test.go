package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
	"taskhub/internal/testutil"
)

func newAuth(t *testing.T) (*AuthService, *TokenService) {
	t.Helper()
	tokens := NewTokenService("secret", "taskhub", time.Hour)
	svc := NewAuthService(repositories.NewUserRepository(testutil.NewTestDB(t)), tokens)
	svc.cost = bcrypt.MinCost
	return svc, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, tokens := newAuth(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, models.RegisterRequest{Name: " Alice ", Email: "Alice@Example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Name != "Alice" || user.Email != "alice@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.PasswordHash == "hunter22" {
		t.Fatal("password stored in clear text")
	}

	token, got, err := svc.Login(ctx, models.LoginRequest{Email: "ALICE@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected %s, got %s", user.ID, got.ID)
	}
	id, err := tokens.Resolve(token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != user.ID {
		t.Fatalf("token resolves to %q, want %q", id, user.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	req := models.RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: "secret1"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("register: %v", err)
	}
	req.Email = "BOB@example.com"
	if _, err := svc.Register(ctx, req); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuth(t)
	_, err := svc.Register(context.Background(), models.RegisterRequest{Name: "", Email: "nope", Password: "123"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, f := range []string{"name", "email", "password"} {
		if _, ok := verr.Fields[f]; !ok {
			t.Fatalf("missing field %s in %v", f, verr.Fields)
		}
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, models.RegisterRequest{Name: "Carol", Email: "carol@example.com", Password: "right-one"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, req := range []models.LoginRequest{
		{Email: "carol@example.com", Password: "wrong-one"},
		{Email: "nobody@example.com", Password: "right-one"},
	} {
		if _, _, err := svc.Login(ctx, req); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("login %+v: expected ErrUnauthenticated, got %v", req, err)
		}
	}
}
