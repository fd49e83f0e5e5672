package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"spendwise/internal/core"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_IssueVerify(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m := NewTokenManager(secret, time.Hour).WithClock(func() time.Time { return now })

	token, exp, err := m.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if !exp.Equal(now.Add(time.Hour)) {
		t.Errorf("exp = %v", exp)
	}

	got, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != "user-42" {
		t.Errorf("Verify() = %q, want user-42", got)
	}
}

func TestTokenManager_VerifyFailures(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	issuerMgr := NewTokenManager(secret, time.Hour).WithClock(func() time.Time { return issuedAt })
	valid, _, err := issuerMgr.Issue("user-1")
	if err != nil {
		t.Fatal(err)
	}

	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1", Issuer: issuer}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}).SignedString([]byte(secret))

	tests := []struct {
		name    string
		mgr     *TokenManager
		token   string
		wantMsg string
	}{
		{
			name:    "expired",
			mgr:     NewTokenManager(secret, time.Hour).WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) }),
			token:   valid,
			wantMsg: "token expired",
		},
		{
			name:    "wrong secret",
			mgr:     NewTokenManager(strings.Repeat("x", 32), time.Hour).WithClock(func() time.Time { return issuedAt }),
			token:   valid,
			wantMsg: "invalid token",
		},
		{
			name:    "garbage",
			mgr:     issuerMgr,
			token:   "not.a.jwt",
			wantMsg: "invalid token",
		},
		{
			name:    "alg none",
			mgr:     issuerMgr,
			token:   noneToken,
			wantMsg: "invalid token",
		},
		{
			name:    "missing subject",
			mgr:     issuerMgr,
			token:   noSubject,
			wantMsg: "invalid token claims",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.mgr.Verify(tt.token)
			if core.KindOf(err) != core.KindAuth {
				t.Fatalf("Verify() error = %v, want auth error", err)
			}
			if core.PublicMessage(err) != tt.wantMsg {
				t.Errorf("message = %q, want %q", core.PublicMessage(err), tt.wantMsg)
			}
		})
	}
}

func TestUserIDContext(t *testing.T) {
	if _, ok := UserID(context.Background()); ok {
		t.Error("empty context should have no user")
	}
	ctx := WithUserID(context.Background(), "u1")
	if id, ok := UserID(ctx); !ok || id != "u1" {
		t.Errorf("UserID() = %q, %v", id, ok)
	}
}
