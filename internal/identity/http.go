package identity

import (
	"net/http"
	"strings"
)

// Credential reads a bearer token from the Authorization header, or from the
// token query parameter for websocket clients that can not set headers.
func Credential(req *http.Request) string {
	if auth := req.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return req.URL.Query().Get("token")
}

// Authenticate resolves the caller of req.
func (v *Verifier) Authenticate(req *http.Request) (Identity, error) {
	return v.Verify(Credential(req))
}
