package services

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/store/memory"
)

func newAuthService(st *memory.Store) *AuthService {
	tokens := auth.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	return NewAuthService(st, st, tokens, quietLogger()).WithHashCost(bcrypt.MinCost)
}

func TestAuthService_RegisterSeedsCategories(t *testing.T) {
	st := memory.New()
	svc := newAuthService(st)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Name: "Sam", Email: "Sam@Example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if res.Token == "" || res.User.ID == "" {
		t.Fatalf("Register() returned %+v", res)
	}
	if res.User.Email != "sam@example.com" {
		t.Errorf("email not normalized: %q", res.User.Email)
	}
	if res.User.PasswordHash == "correct horse" {
		t.Error("password stored in clear")
	}

	cats, err := st.ListCategories(ctx, res.User.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != len(core.DefaultCategories) {
		t.Errorf("seeded %d categories, want %d", len(cats), len(core.DefaultCategories))
	}

	userID, err := svc.Authenticate(res.Token)
	if err != nil || userID != res.User.ID {
		t.Errorf("Authenticate() = %q, %v", userID, err)
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := newAuthService(memory.New())
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
		kind core.ErrorKind
	}{
		{"bad email", RegisterInput{Name: "A", Email: "nope", Password: "longenough"}, core.KindValidation},
		{"display name form", RegisterInput{Name: "A", Email: "A <a@b.co>", Password: "longenough"}, core.KindValidation},
		{"short password", RegisterInput{Name: "A", Email: "a@b.co", Password: "short"}, core.KindValidation},
		{"missing name", RegisterInput{Name: "  ", Email: "a@b.co", Password: "longenough"}, core.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			wantKind(t, err, tt.kind)
		})
	}
}

func TestAuthService_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	svc := newAuthService(memory.New())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "dup@example.com", Password: "password1"}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(ctx, RegisterInput{Name: "B", Email: "DUP@example.com", Password: "password2"})
	wantKind(t, err, core.KindConflict)
}

func TestAuthService_Login(t *testing.T) {
	svc := newAuthService(memory.New())
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterInput{Name: "Kim", Email: "kim@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatal(err)
	}

	res, err := svc.Login(ctx, " KIM@example.com ", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.User.ID != reg.User.ID {
		t.Errorf("Login() user = %s, want %s", res.User.ID, reg.User.ID)
	}

	_, err = svc.Login(ctx, "kim@example.com", "wrong-pass")
	wantKind(t, err, core.KindAuth)

	_, err = svc.Login(ctx, "ghost@example.com", "s3cret-pass")
	wantKind(t, err, core.KindAuth)

	me, err := svc.Me(ctx, reg.User.ID)
	if err != nil || me.Email != "kim@example.com" {
		t.Errorf("Me() = %+v, %v", me, err)
	}
	_, err = svc.Me(ctx, "deleted-user")
	wantKind(t, err, core.KindAuth)
}
