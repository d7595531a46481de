package authenticator

import "net/http"

// Authenticator is the contract the router consumes: a middleware that
// resolves a bearer token to a user identity or rejects the request, and
// an issuer for new tokens on signin.
type Authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
	IssueToken(userID string) (string, error)
}
