package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MrEthical07/chatauth"
)

// Response is the body of every account endpoint.
type Response struct {
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter,omitempty"`
	// AttemptsRemaining is set on a wrong verification code.
	AttemptsRemaining int `json:"attemptsRemaining,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Message: msg})
}

func setCookies(w http.ResponseWriter, cookies []*http.Cookie) {
	for _, c := range cookies {
		http.SetCookie(w, c)
	}
}

// writeError maps an Engine error onto a status code and stable message.
// Internal details never reach the body.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rl *chatauth.RateLimitError
	if errors.As(err, &rl) {
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
		writeJSON(w, http.StatusTooManyRequests, Response{
			Message:    "Too many login attempts, retry in " + strconv.Itoa(rl.RetryAfter) + " seconds",
			RetryAfter: rl.RetryAfter,
		})
		return
	}

	var mismatch *chatauth.CodeMismatchError
	if errors.As(err, &mismatch) {
		writeJSON(w, http.StatusBadRequest, Response{
			Message:           "Incorrect code, " + strconv.Itoa(mismatch.AttemptsRemaining) + " attempts remaining",
			AttemptsRemaining: mismatch.AttemptsRemaining,
		})
		return
	}

	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeMessage(w, status, msg)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, chatauth.ErrInvalidInput):
		return http.StatusBadRequest, "Missing or invalid fields"
	case errors.Is(err, chatauth.ErrUsernameTooWide):
		return http.StatusBadRequest, "Username too long"
	case errors.Is(err, chatauth.ErrUserNotFound):
		return http.StatusUnauthorized, "Email not registered"
	case errors.Is(err, chatauth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Incorrect email or password"
	case errors.Is(err, chatauth.ErrAccountLocked):
		return http.StatusServiceUnavailable, "Too many failed passwords, reset your password or try again later"
	case errors.Is(err, chatauth.ErrEmailRegistered):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, chatauth.ErrEmailNotRegistered):
		return http.StatusBadRequest, "Email not registered"
	case errors.Is(err, chatauth.ErrInvitationInvalid):
		return http.StatusBadRequest, "Invalid invitation code"
	case errors.Is(err, chatauth.ErrInvitationBlocked):
		return http.StatusBadRequest, "Too many requests, this IP is temporarily blocked"
	case errors.Is(err, chatauth.ErrCodeTooFrequent):
		return http.StatusBadRequest, "Code requested too often, try again later"
	case errors.Is(err, chatauth.ErrCodeDeliveryFailed):
		return http.StatusBadRequest, "Could not send the code, contact the administrator"
	case errors.Is(err, chatauth.ErrCodeNotFound):
		return http.StatusBadRequest, "No code requested, request a new one"
	case errors.Is(err, chatauth.ErrCodeExpired):
		return http.StatusBadRequest, "Code expired"
	case errors.Is(err, chatauth.ErrCodeMismatch):
		return http.StatusBadRequest, "Incorrect code"
	case errors.Is(err, chatauth.ErrCodeExhausted):
		return http.StatusBadRequest, "Too many incorrect codes, request a new one"
	default:
		return http.StatusInternalServerError, "Server error, try again later"
	}
}
