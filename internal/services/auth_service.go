package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/store"
)

const (
	minPasswordLen = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordLen = 72
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User      core.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	users      store.UserStore
	categories store.CategoryStore
	tokens     *auth.TokenManager
	hashCost   int
	now        Clock
	logger     *applog.Logger
}

func NewAuthService(users store.UserStore, categories store.CategoryStore, tokens *auth.TokenManager, logger *applog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		categories: categories,
		tokens:     tokens,
		hashCost:   bcrypt.DefaultCost,
		now:        utcNow,
		logger:     componentLogger(logger, applog.ComponentAuth),
	}
}

// WithHashCost lowers the bcrypt cost. Tests only.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.hashCost = cost
	return s
}

// Register creates the account, seeds the default categories and signs the
// user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return AuthResult{}, err
	}
	if name == "" || len(name) > 50 {
		return AuthResult{}, core.Validationf("name is required (max 50 characters)")
	}
	if len(in.Password) < minPasswordLen || len(in.Password) > maxPasswordLen {
		return AuthResult{}, core.Validationf("password must be between %d and %d characters", minPasswordLen, maxPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return AuthResult{}, core.Internal("hash password", err)
	}

	user := core.User{
		ID:           newID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return AuthResult{}, err
	}

	if err := s.categories.CreateCategories(ctx, defaultCategoriesFor(user.ID)); err != nil {
		return AuthResult{}, err
	}

	s.logger.InfoContext(ctx, "User registered", applog.FieldUserID, user.ID)
	return s.signIn(user)
}

// Login checks credentials. Unknown email and wrong password look the same
// to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if core.IsNotFound(err) {
			return AuthResult{}, core.Authf("invalid email or password")
		}
		return AuthResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Failed login", applog.FieldUserID, user.ID)
		return AuthResult{}, core.Authf("invalid email or password")
	}
	return s.signIn(user)
}

// Me returns the profile behind an authenticated id.
func (s *AuthService) Me(ctx context.Context, userID string) (core.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if core.IsNotFound(err) {
		// token outlived the account
		return core.User{}, core.Authf("account no longer exists")
	}
	return u, err
}

// Authenticate verifies a bearer token.
func (s *AuthService) Authenticate(token string) (string, error) {
	return s.tokens.Verify(token)
}

func (s *AuthService) signIn(u core.User) (AuthResult, error) {
	token, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: u, Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw || len(raw) > 254 {
		return "", core.Validationf("a valid email is required")
	}
	return strings.ToLower(raw), nil
}

func defaultCategoriesFor(userID string) []core.Category {
	out := make([]core.Category, 0, len(core.DefaultCategories))
	for _, d := range core.DefaultCategories {
		out = append(out, core.Category{ID: newID(), UserID: userID, Name: d.Name, Type: d.Type})
	}
	return out
}
