package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MrEthical07/chatauth"
)

// DefaultPublicPaths are served without a session.
var DefaultPublicPaths = []string{
	"/login.html",
	"/signup.html",
	"/theme.js",
	"/color.css",
	"/favicon.ico",
}

// DefaultPublicPrefix covers the account endpoints, which authenticate
// themselves. It is a plain string prefix, so "/user" and "/users.js"
// match too.
const DefaultPublicPrefix = "/user"

// Options configures [Guard].
type Options struct {
	// PublicPaths are exact paths that skip validation.
	PublicPaths []string
	// PublicPrefixes are path prefixes that skip validation.
	PublicPrefixes []string
	// SignupPage is written with status 401 to unauthenticated page
	// requests (paths ending in ".html" and "/"). Other paths get a JSON body.
	SignupPage []byte
}

// DefaultOptions returns the whitelist used by the chat front end.
func DefaultOptions() Options {
	return Options{
		PublicPaths:    append([]string(nil), DefaultPublicPaths...),
		PublicPrefixes: []string{DefaultPublicPrefix},
	}
}

// Guard validates the session cookie on every non-public request. A valid
// session is renewed with a fresh lifetime and the account is attached to
// the request context (see chatauth.AccountFromContext).
func Guard(engine *chatauth.Engine, opts Options) func(http.Handler) http.Handler {
	public := make(map[string]struct{}, len(opts.PublicPaths))
	for _, p := range opts.PublicPaths {
		public[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path, public, opts.PublicPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			if engine == nil {
				unauthorized(w, r, opts.SignupPage)
				return
			}

			account, cookies, err := engine.Renew(r)
			if err != nil {
				unauthorized(w, r, opts.SignupPage)
				return
			}
			for _, c := range cookies {
				http.SetCookie(w, c)
			}

			ctx := chatauth.WithAccount(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isPublic(path string, exact map[string]struct{}, prefixes []string) bool {
	if _, ok := exact[path]; ok {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func unauthorized(w http.ResponseWriter, r *http.Request, page []byte) {
	path := r.URL.Path
	if page != nil && (path == "/" || strings.HasSuffix(path, ".html")) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write(page)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
}
