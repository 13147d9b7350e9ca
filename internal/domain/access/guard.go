// Package access decides whether a caller may see a route, based on the
// caller's identity and resolved profile role.
package access

import (
	"github.com/healthhub/portal/internal/domain/identity"
	"github.com/healthhub/portal/internal/platform/apperr"
)

// LoginPath is where callers without an identity are sent.
const LoginPath = "/auth"

// DecisionKind enumerates guard outcomes.
type DecisionKind int

const (
	Allow DecisionKind = iota
	RedirectToLogin
	RedirectTo
	Defer
	Error
)

func (k DecisionKind) String() string {
	switch k {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectTo:
		return "redirect"
	case Defer:
		return "defer"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Decision is the result of Decide. Path is set for the two redirect kinds
// and Err for Error.
type Decision struct {
	Kind DecisionKind
	Path string
	Err  error
}

// Allowed is true only for Allow. Defer and Error neither allow nor
// redirect.
func (d Decision) Allowed() bool { return d.Kind == Allow }

// Requirement is what a guarded route declares. A nil *Requirement is a
// public page. An empty Roles set admits any authenticated role.
type Requirement struct {
	Roles []identity.Role
}

// RequireRoles builds a requirement admitting the given roles, or any role
// when none are given.
func RequireRoles(roles ...identity.Role) *Requirement {
	return &Requirement{Roles: roles}
}

func (r *Requirement) admits(role identity.Role) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// ProfileState tracks profile resolution for one session.
type ProfileState int

const (
	ProfileLoading ProfileState = iota
	ProfileReady
	ProfileFailed
)

// ProfileStatus is the guard's view of the caller's profile.
type ProfileStatus struct {
	State   ProfileState
	Profile *identity.Profile
	Err     error
}

// Decide is the access decision. identityID is empty for an anonymous
// caller. It performs no I/O.
func Decide(identityID string, status ProfileStatus, req *Requirement) Decision {
	if req == nil {
		return Decision{Kind: Allow}
	}
	if identityID == "" {
		return Decision{Kind: RedirectToLogin, Path: LoginPath}
	}

	switch status.State {
	case ProfileLoading:
		return Decision{Kind: Defer}
	case ProfileFailed:
		err := status.Err
		if err == nil {
			err = apperr.FatalData("profile resolution failed")
		}
		return Decision{Kind: Error, Err: err}
	}
	if status.Profile == nil {
		return Decision{Kind: Error, Err: apperr.NotFound("no profile for identity %s", identityID)}
	}

	if !req.admits(status.Profile.Role) {
		path, err := PathFor(status.Profile.Role)
		if err != nil {
			return Decision{Kind: Error, Err: err}
		}
		return Decision{Kind: RedirectTo, Path: path}
	}
	return Decision{Kind: Allow}
}

var dashboardPaths = map[identity.Role]string{
	identity.RolePatient: "/dashboard/patient",
	identity.RoleDoctor:  "/dashboard/doctor",
	identity.RoleAdmin:   "/dashboard/admin",
}

// PathFor returns the home dashboard of role.
func PathFor(role identity.Role) (string, error) {
	path, ok := dashboardPaths[role]
	if !ok {
		return "", apperr.FatalData("no dashboard for role %q", role)
	}
	return path, nil
}
