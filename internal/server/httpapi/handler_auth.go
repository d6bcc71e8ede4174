package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/server/auth"
	"github.com/localbizsite/localbiz/internal/server/models"
	"github.com/localbizsite/localbiz/internal/server/services"
)

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, errBadJSON)
		return
	}

	name := req.Name
	if name == "" {
		name = req.FullName
	}

	sess, err := s.svc.Accounts.Register(r.Context(), auth.Registration{
		Name:     name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"message":   "User registered successfully",
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt,
		"user":      publicAccount(sess.Account),
	})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, errBadJSON)
		return
	}

	sess, err := s.svc.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Login successful",
		"token":     sess.Token,
		"expiresIn": int64(sess.ExpiresAt.Sub(s.clock.Now()).Seconds()),
		"expiresAt": sess.ExpiresAt,
		"user":      publicAccount(sess.Account),
	})
}

func (s *HTTPServer) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    publicAccount(accountFrom(r.Context())),
	})
}

func (s *HTTPServer) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, errBadJSON)
		return
	}

	upd := services.ProfileUpdate{Name: req.Name, Phone: req.Phone}
	if upd.Name == nil {
		upd.Name = req.FullName
	}

	a, err := s.svc.Accounts.UpdateProfile(r.Context(), accountFrom(r.Context()), upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Profile updated",
		"user":    publicAccount(a),
	})
}

// validateToken always answers 200; the outcome is in the body.
func (s *HTTPServer) validateToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	_ = decodeJSON(w, r, &req)

	token := req.Token
	if token == "" {
		token = bearerToken(r)
	}
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "message": "No token provided"})
		return
	}

	a, err := s.svc.Accounts.ValidateToken(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "message": tokenFailureMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":   true,
		"message": "Token is valid",
		"user":    publicAccount(a),
	})
}

func tokenFailureMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, common.ErrInvalidToken):
		return "Invalid token"
	case errors.Is(err, common.ErrorNotFound):
		return "Account not found"
	default:
		return "Token could not be validated"
	}
}

// logout revokes the caller's outstanding tokens when it presents a valid
// one. Without a usable token there is nothing to revoke and the call still
// succeeds.
func (s *HTTPServer) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if token := bearerToken(r); token != "" {
		a, err := s.svc.Accounts.Authenticate(ctx, token)
		if err == nil {
			// The client drops its token either way.
			if err := s.svc.Accounts.Logout(ctx, a); err != nil {
				s.logger.Warn(ctx, "logout could not revoke tokens", "account_id", a.ID, "error", err)
			}
		} else {
			s.logger.Debug(ctx, "logout with unusable token", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out successfully"})
}

func (s *HTTPServer) changeRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, errBadJSON)
		return
	}

	a, err := s.svc.Accounts.ChangeRole(r.Context(), accountFrom(r.Context()), chi.URLParam(r, "id"), models.Role(req.Role))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": publicAccount(a)})
}
