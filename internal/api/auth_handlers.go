package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"echocheck/internal/logging"
	"echocheck/internal/users"
)

var validate = validator.New()

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, users.ErrUsernameTaken):
		s.writeError(w, http.StatusConflict, "username already registered")
		return
	case errors.Is(err, users.ErrEmailTaken):
		s.writeError(w, http.StatusConflict, "email already registered")
		return
	case err != nil:
		s.logger.Error("registration failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	s.logger.Info("user registered",
		logging.Int64("user_id", user.ID),
		logging.String("username", user.Username))
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "user created",
		"user_id": user.ID,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	user, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			s.writeError(w, http.StatusUnauthorized, "incorrect username or password")
			return
		}
		s.logger.Error("login failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("token issuance failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := requestClaims(r)
	if claims == nil {
		s.writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	user, err := s.users.ByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.writeError(w, http.StatusUnauthorized, "account no longer exists")
			return
		}
		s.logger.Error("user lookup failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "user lookup failed")
		return
	}

	s.writeJSON(w, http.StatusOK, userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

// validationMessage flattens validator output into a single client-facing
// string naming the first offending field.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		switch first.Tag() {
		case "required":
			return "missing required field: " + first.Field()
		case "email":
			return "invalid email address"
		case "min", "max":
			return "field out of range: " + first.Field()
		default:
			return "invalid field: " + first.Field()
		}
	}
	return "invalid request"
}
