package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/qrqwqeqt/GoF-Patt/internal/auth"
)

// changePasswordRequest is the request body for PUT /auth/updatePassword.
type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// handleGetUser returns the caller's own account.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.GetUser(r.Context(), callerID(r))
	if err != nil {
		s.writeServiceError(w, r, err, userNotFoundMsg)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleUpdateUser patches the caller's profile. Fields absent from the
// body are left unchanged; the password and account tier cannot be set here.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var update auth.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	id := callerID(r)
	user, err := s.accounts.UpdateUser(r.Context(), id, update)
	if err != nil {
		s.writeServiceError(w, r, err, userNotFoundMsg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "user updated",
		"updatedUser": user,
	})
}

// handleChangePassword replaces the caller's password after checking the old one.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	id := callerID(r)
	err := s.accounts.ChangePassword(r.Context(), id, req.OldPassword, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeBadRequest(w, "old password is incorrect")
		return
	case err != nil:
		s.writeServiceError(w, r, err, userNotFoundMsg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "password changed"})
}

// handleDeleteUser removes the caller's account and all of their listings.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := callerID(r)
	if err := s.accounts.DeleteUser(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, userNotFoundMsg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "user deleted"})
}
