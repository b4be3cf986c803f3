package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/chatauth"
	"github.com/MrEthical07/chatauth/middleware"
)

const maxBodyBytes = 1 << 16

// Options configures [New].
type Options struct {
	// Static serves everything outside /user/ once the guard lets it
	// through. Nil responds 404.
	Static http.Handler
	// Metrics is mounted at GET /metrics when set. It sits behind the
	// session guard unless PublicMetrics is true.
	Metrics       http.Handler
	PublicMetrics bool
	Guard         middleware.Options
	Logger        *slog.Logger
}

// Handler serves the account endpoints and guards everything else.
type Handler struct {
	engine *chatauth.Engine
	logger *slog.Logger
	mux    *http.ServeMux
	root   http.Handler
}

// New builds the HTTP surface for engine.
func New(engine *chatauth.Engine, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		engine: engine,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /user/getcode", h.getCode)
	h.mux.HandleFunc("POST /user/postcode", h.postCode)
	h.mux.HandleFunc("POST /user/getcode2", h.getCode2)
	h.mux.HandleFunc("POST /user/postcode2", h.postCode2)
	h.mux.HandleFunc("POST /user/postlogin", h.postLogin)
	h.mux.HandleFunc("POST /user/postlogout", h.postLogout)
	h.mux.HandleFunc("GET /user/status", h.status)
	if opts.Metrics != nil {
		metrics := opts.Metrics
		if !opts.PublicMetrics {
			metrics = middleware.Guard(engine, opts.Guard)(metrics)
		}
		h.mux.Handle("GET /metrics", metrics)
	}

	static := opts.Static
	if static == nil {
		static = http.NotFoundHandler()
	}
	h.mux.Handle("/", middleware.Guard(engine, opts.Guard)(static))

	h.root = WithClientIP(h.mux)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

type getCodeRequest struct {
	Email          string `json:"email"`
	InvitationCode string `json:"Invitationcode"`
}

type postCodeRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"pwd"`
	Code     string `json:"code"`
}

type getCode2Request struct {
	Email string `json:"email"`
}

type postCode2Request struct {
	Email    string `json:"email"`
	Password string `json:"pwd"`
	Code     string `json:"code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) getCode(w http.ResponseWriter, r *http.Request) {
	var body getCodeRequest
	if !decode(w, r, &body) {
		return
	}
	if err := h.engine.RequestRegistrationCode(r.Context(), body.Email, body.InvitationCode); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Code sent, check your inbox")
}

func (h *Handler) postCode(w http.ResponseWriter, r *http.Request) {
	var body postCodeRequest
	if !decode(w, r, &body) {
		return
	}
	_, err := h.engine.Register(r.Context(), chatauth.Registration{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
		Code:     body.Code,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Account created")
}

func (h *Handler) getCode2(w http.ResponseWriter, r *http.Request) {
	var body getCode2Request
	if !decode(w, r, &body) {
		return
	}
	if err := h.engine.RequestPasswordResetCode(r.Context(), body.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Code sent, check your inbox")
}

func (h *Handler) postCode2(w http.ResponseWriter, r *http.Request) {
	var body postCode2Request
	if !decode(w, r, &body) {
		return
	}
	_, err := h.engine.ResetPassword(r.Context(), chatauth.PasswordReset{
		Email:       body.Email,
		NewPassword: body.Password,
		Code:        body.Code,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password changed")
}

func (h *Handler) postLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decode(w, r, &body) {
		return
	}
	_, cookies, err := h.engine.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, chatauth.ErrInvalidInput) {
			writeMessage(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		h.writeError(w, r, err)
		return
	}
	setCookies(w, cookies)
	writeMessage(w, http.StatusOK, "Logged in")
}

func (h *Handler) postLogout(w http.ResponseWriter, r *http.Request) {
	setCookies(w, h.engine.Logout(r.Context(), r))
	writeMessage(w, http.StatusOK, "Logged out")
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Status(r))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}
