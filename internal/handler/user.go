package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/dukapos/dukapos/internal/auth"
	"github.com/dukapos/dukapos/internal/domain/user"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// registerUser handles POST /api/users/register.
func (s *Server) registerUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body registerRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}

	role := user.Role(body.Role)
	if body.Name == "" || body.Email == "" || len(body.Password) < 8 || !role.Valid() {
		writeError(ctx, w, http.StatusBadRequest, "validation_failed",
			"name, email, a password of at least 8 characters and a valid role are required")
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not hash password")
		return
	}

	u := user.User{Name: body.Name, Email: body.Email, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			writeError(ctx, w, http.StatusConflict, "email_taken", "an account with this email already exists")
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not create account")
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// login handles POST /api/users/login. Bad email and bad password get the
// same answer.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body loginRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}

	u, err := s.users.GetByEmail(ctx, body.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(ctx, w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not look up account")
		return
	}

	if !auth.CheckPassword(u.PasswordHash, body.Password) {
		writeError(ctx, w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not issue token")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)},
	})
}

// me handles GET /api/users/me.
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := claimsFrom(ctx)
	if !ok {
		writeError(ctx, w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(ctx, w, http.StatusUnauthorized, "unauthorized", "account no longer exists")
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not load account")
		return
	}

	writeJSON(w, http.StatusOK, userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// changePassword handles PUT /api/users/change-password for the
// authenticated account.
func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := claimsFrom(ctx)
	if !ok {
		writeError(ctx, w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var body changePasswordRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}
	if len(body.NewPassword) < 8 {
		writeError(ctx, w, http.StatusBadRequest, "validation_failed", "new password must be at least 8 characters")
		return
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not load account")
		return
	}
	if !auth.CheckPassword(u.PasswordHash, body.CurrentPassword) {
		writeError(ctx, w, http.StatusUnauthorized, "invalid_credentials", "current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(body.NewPassword)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not hash password")
		return
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not update password")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
