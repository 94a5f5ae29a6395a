package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/messages"
	"github.com/hacknet/portal/internal/profile"
)

const maxAvatarBytes = 5 << 20

// UsernameRequest is the request body for PUT /api/profile/username.
type UsernameRequest struct {
	Username string `json:"username"`
}

// EmailRequest is the request body for PUT /api/profile/email.
type EmailRequest struct {
	Email string `json:"email"`
}

// PasswordRequest is the request body for PUT /api/profile/password.
type PasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func profileFail(w http.ResponseWriter, r *http.Request, d *Deps, err error, fallback string) {
	if errors.Is(err, profile.ErrBadUsername) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	respond(w, r, d, backendStatus(err), ErrorResponse{Error: backend.Detail(err, fallback)}, err)
}

func handleProfileGet(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := apiFrom(r).Profile(r.Context())
		if err != nil {
			profileFail(w, r, d, err, messages.Get("profile.load_failed"))
			return
		}
		respond(w, r, d, http.StatusOK, p, nil)
	}
}

func handleProfileUsername(d *Deps, editor *profile.Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UsernameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		p, err := editor.Rename(r.Context(), apiFrom(r), req.Username)
		if err != nil {
			profileFail(w, r, d, err, messages.Get("profile.update_failed"))
			return
		}
		respond(w, r, d, http.StatusOK, p, nil)
	}
}

func handleProfileEmail(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EmailRequest
		if err := readJSON(r, &req); err != nil || strings.TrimSpace(req.Email) == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}
		msg, err := apiFrom(r).UpdateEmail(r.Context(), strings.TrimSpace(req.Email))
		if err != nil {
			profileFail(w, r, d, err, messages.Get("profile.update_failed"))
			return
		}
		respond(w, r, d, http.StatusOK, msg, nil)
	}
}

func handleProfilePassword(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PasswordRequest
		if err := readJSON(r, &req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
			writeError(w, http.StatusBadRequest, "current and new password are required")
			return
		}
		msg, err := apiFrom(r).ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword)
		if err != nil {
			profileFail(w, r, d, err, messages.Get("profile.update_failed"))
			return
		}
		respond(w, r, d, http.StatusOK, msg, nil)
	}
}

func handleProfileAvatar(d *Deps, editor *profile.Editor, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
			return
		}
		defer file.Close()

		p, err := editor.SetAvatar(r.Context(), apiFrom(r), header.Filename, file)
		if err != nil {
			logger.Warn("uploading avatar", "error", err)
			profileFail(w, r, d, err, messages.Get("profile.update_failed"))
			return
		}
		respond(w, r, d, http.StatusOK, p, nil)
	}
}
