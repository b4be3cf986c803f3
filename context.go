package chatauth

import "context"

type clientIPContextKey struct{}
type accountContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine keys the
// login rate limiter and invitation gate on it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// ClientIPFromContext returns the IP set by [WithClientIP].
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// WithAccount attaches an authenticated account to ctx.
func WithAccount(ctx context.Context, a Account) context.Context {
	return context.WithValue(ctx, accountContextKey{}, a)
}

// AccountFromContext returns the account attached by [WithAccount].
func AccountFromContext(ctx context.Context) (Account, bool) {
	if ctx == nil {
		return Account{}, false
	}
	a, ok := ctx.Value(accountContextKey{}).(Account)
	return a, ok
}
