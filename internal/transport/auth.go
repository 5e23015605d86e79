package transport

import (
	"fmt"
	"net/http"
	"strings"
)

// Authenticator applies a credential to an outgoing request.
type Authenticator interface {
	Apply(req *http.Request, token string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// BearerAuth sends the token as "Authorization: Bearer <token>".
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

// HeaderAuth sends the token verbatim in a custom header.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, token string) {
	req.Header.Set(a.Header, token)
}

// QueryAuth sends the token as a query parameter.
type QueryAuth struct {
	Param string
}

// Apply implements the Authenticator interface for QueryAuth.
func (a *QueryAuth) Apply(req *http.Request, token string) {
	if req.URL == nil {
		return
	}
	query := req.URL.Query()
	query.Set(a.Param, token)
	req.URL.RawQuery = query.Encode()
}

// ParseAuth builds an Authenticator from a scheme string:
//
//	""  or "none"    no authentication
//	"bearer"         Authorization: Bearer <token>
//	"header:<name>"  <name>: <token>
//	"query:<param>"  ?<param>=<token>
func ParseAuth(scheme string) (Authenticator, error) {
	kind, arg, _ := strings.Cut(strings.TrimSpace(scheme), ":")
	switch strings.ToLower(kind) {
	case "", "none":
		return &NoAuth{}, nil
	case "bearer":
		return &BearerAuth{}, nil
	case "header":
		if arg == "" {
			return nil, fmt.Errorf("auth scheme %q: missing header name", scheme)
		}
		return &HeaderAuth{Header: arg}, nil
	case "query":
		if arg == "" {
			return nil, fmt.Errorf("auth scheme %q: missing parameter name", scheme)
		}
		return &QueryAuth{Param: arg}, nil
	default:
		return nil, fmt.Errorf("unknown auth scheme %q", scheme)
	}
}
