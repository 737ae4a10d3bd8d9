package authorizer

import (
	"strings"
)

// DeniedPrincipalID is the principal recorded on deny decisions. A denied
// request's claims may be forged, so the decision never derives anything
// from them.
const DeniedPrincipalID = "unauthorized"

// AccessDecision is the ephemeral outcome of an authorization check.
// Context carries {subject, email, scopes} for downstream audit logging and
// is populated only on allow.
type AccessDecision struct {
	PrincipalID string
	Allow       bool
	Resource    string
	Context     map[string]string
}

// Authorizer combines credential verification with decision building.
type Authorizer struct {
	verifier *Verifier
}

func New(cfg Config) (*Authorizer, error) {
	verifier, err := NewVerifier(cfg)
	if err != nil {
		return nil, err
	}
	return &Authorizer{verifier: verifier}, nil
}

// Authorize verifies rawCredential and returns the decision for the
// requested resource path. Every failure mode produces the same deny shape,
// so a caller cannot distinguish a bad signature from an expired token from
// the response.
//
// Scopes are parsed and carried in the decision context but not enforced:
// any authenticated principal is granted the whole resource namespace.
func (a *Authorizer) Authorize(rawCredential, resourcePath string) AccessDecision {
	credential, err := a.verifier.Verify(rawCredential)
	if err != nil {
		return Deny(resourcePath)
	}
	return Allow(credential, resourcePath)
}

// Deny builds a deny decision referencing only the requested resource.
func Deny(resourcePath string) AccessDecision {
	return AccessDecision{
		PrincipalID: DeniedPrincipalID,
		Allow:       false,
		Resource:    resourcePath,
	}
}

// Allow builds an allow decision scoped to the resource namespace of the
// request, with the audit context bag attached.
func Allow(credential *Credential, resourcePath string) AccessDecision {
	return AccessDecision{
		PrincipalID: credential.Subject,
		Allow:       true,
		Resource:    resourceNamespace(resourcePath),
		Context: map[string]string{
			"subject": credential.Subject,
			"email":   credential.Email,
			"scopes":  strings.Join(credential.Scopes, " "),
		},
	}
}

// resourceNamespace widens a request path to its API namespace, e.g.
// "/api/v1/users/alice" -> "/api/v1/*". Authenticated principals are granted
// the whole surface.
func resourceNamespace(resourcePath string) string {
	path := strings.Trim(resourcePath, "/")
	if path == "" {
		return "/*"
	}

	segments := strings.Split(path, "/")
	if len(segments) >= 2 && segments[0] == "api" {
		return "/" + segments[0] + "/" + segments[1] + "/*"
	}
	return "/" + segments[0] + "/*"
}
