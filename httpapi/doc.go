// Package httpapi serves the account endpoints of the chat application
// under /user/ and places [middleware.Guard] in front of everything else.
//
// Every endpoint answers with a JSON {"message": ...} body. A rate-limited
// login additionally carries a Retry-After header and a retryAfter field.
package httpapi
