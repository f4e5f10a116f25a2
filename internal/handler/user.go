// Package handler contains the HTTP-facing layer: request decoding,
// response shaping, and nothing else. Business rules live in the service
// package.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/chatconnect/internal/auth"
	"github.com/sakif/chatconnect/internal/model"
	"github.com/sakif/chatconnect/internal/service"
)

// UserHandler serves the /v1 user-lifecycle endpoints.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// authPayload is the login/SSO response data: the sanitized user plus
// the issued token.
type authPayload struct {
	*model.SanitizedUser
	Token string `json:"token"`
}

// HandleRegister creates a new user account.
//
// HTTP: POST /v1/register
// Body: {email, username, first_name, last_name, password}
// 201 with the sanitized user; 400 on validation, 409 on duplicate email.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.users.Register(r.Context(), in)
	if err != nil {
		h.logError("register", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated,
		"Signup email has been sent successfully! Please check your email and verify your account",
		result.User.Sanitized())
}

// HandleSignIn authenticates an email/password pair.
//
// HTTP: POST /v1/login
// Body: {email, password}
// 200 with the sanitized user and a token; 400 on bad input or wrong
// password, 404 for unknown or unverified users.
func (h *UserHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.users.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		h.logError("login", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", authPayload{
		SanitizedUser: result.User.Sanitized(),
		Token:         result.Token,
	})
}

// HandleListUsers returns the reduced projection of every user.
//
// HTTP: GET /v1/fetch-all-users
// 200 with a bare array; 404 when no users exist.
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.users.List(r.Context())
	if err != nil {
		h.logError("fetch-all-users", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// HandleDelete removes a user and all dependent rows.
//
// HTTP: POST /v1/delete
// Body: {email}
// 200 on success; 400 without an email, 404 for unknown emails.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	if err := h.users.Delete(r.Context(), in.Email); err != nil {
		h.logError("delete", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "User and related records deleted successfully", nil)
}

// HandleVerification marks the token's user as verified. RequireAuth has
// already validated the token and put the identity in the context.
//
// HTTP: GET /v1/verification?token=...
// 200 with {email, verification}; 404 if the row vanished.
func (h *UserHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't panic if rewired.
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "valid authentication token required"})
		return
	}

	user, err := h.users.Verify(r.Context(), id)
	if err != nil {
		h.logError("verification", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK,
		"User verification successful. You can now proceed to login",
		map[string]any{
			"email":        user.Email,
			"verification": user.Verification,
		})
}

// HandleForgotPassword issues a reset token and emails a reset link.
//
// HTTP: POST /v1/forgotPassword
// Body: {email}
// 200 with {email, username, token}; 404 for unknown/unverified emails.
func (h *UserHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.users.ForgotPassword(r.Context(), in.Email)
	if err != nil {
		h.logError("forgotPassword", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK,
		"We've sent password reset instructions to the primary email address on the account",
		result)
}

// HandleResetPassword sets a new password for the token's user.
//
// HTTP: POST /v1/resetPassword?token=...
// Body: {password, confirmPassword}
// 200 with {email, username}; 400 on mismatch or weak password.
func (h *UserHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "valid authentication token required"})
		return
	}

	var in struct {
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.users.ResetPassword(r.Context(), id, in.Password, in.ConfirmPassword)
	if err != nil {
		h.logError("resetPassword", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Password reset successfully!", map[string]any{
		"email":    user.Email,
		"username": user.Username,
	})
}

// HandleSSOLogin authenticates with an existing token from the query
// string and returns a fresh one.
//
// HTTP: POST /v1/sso-login?token=...
// 200 with the sanitized user and a new token; 401 for invalid tokens.
func (h *UserHandler) HandleSSOLogin(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "valid authentication token required"})
		return
	}

	result, err := h.users.SSOLogin(r.Context(), token)
	if err != nil {
		h.logError("sso-login", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", authPayload{
		SanitizedUser: result.User.Sanitized(),
		Token:         result.Token,
	})
}

// logError records the full error server-side; the client only ever sees
// the mapped envelope from writeError.
func (h *UserHandler) logError(op string, err error) {
	h.logger.Error("request failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}
