package http

import (
	"net/http"
	"strings"

	"spendwise/internal/auth"
	applog "spendwise/internal/log"
	"spendwise/internal/services"
)

// requireAuth rejects requests without a valid bearer token and stores the
// caller's user ID on the context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			UnauthorizedError("missing bearer token").Header("WWW-Authenticate", "Bearer").Write(w)
			return
		}
		userID, err := s.deps.Auth.Authenticate(strings.TrimSpace(token))
		if err != nil {
			UnauthorizedError("invalid or expired token").Header("WWW-Authenticate", "Bearer").Write(w)
			return
		}

		ctx := auth.WithUserID(r.Context(), userID)
		ctx = applog.WithContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userID is only called behind requireAuth.
func userID(r *http.Request) string {
	id, _ := auth.UserID(r.Context())
	return id
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	res, err := s.deps.Auth.Register(r.Context(), services.RegisterInput{
		Name:     sanitizeInput(req.Name),
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Created(w, "account created", toAuthView(res))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	res, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, toAuthView(res))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Auth.Me(r.Context(), userID(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, toUserView(u))
}
