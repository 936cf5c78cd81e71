package api

import (
	"encoding/json"
	"net/http"

	"github.com/qrqwqeqt/GoF-Patt/internal/auth"
)

const userNotFoundMsg = "user not found"

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// handleRegister creates a regular account.
// A taken email or a malformed field is answered with 400.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.Registration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if _, err := s.accounts.Register(r.Context(), req); err != nil {
		s.writeServiceError(w, r, err, userNotFoundMsg)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": "user registered"})
}

// handleLogin authenticates a user and returns a signed access token.
// An unknown email is 404 and a wrong password 400.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	token, _, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err, userNotFoundMsg)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:   token,
		Message: "login successful",
	})
}
