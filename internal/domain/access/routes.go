package access

import (
	"strings"

	"github.com/healthhub/portal/internal/domain/identity"
)

// routeTable lists the presentation-layer routes and what each requires.
// Paths not listed are public (the not-found page).
var routeTable = map[string]*Requirement{
	"/":     nil,
	"/auth": nil,

	"/dashboard/patient":              RequireRoles(identity.RolePatient),
	"/dashboard/patient/appointments": RequireRoles(identity.RolePatient),
	"/dashboard/patient/records":      RequireRoles(identity.RolePatient),
	"/dashboard/patient/billing":      RequireRoles(identity.RolePatient),

	"/dashboard/doctor":          RequireRoles(identity.RoleDoctor),
	"/dashboard/doctor/schedule": RequireRoles(identity.RoleDoctor),
	"/dashboard/doctor/patients": RequireRoles(identity.RoleDoctor),

	"/dashboard/admin":         RequireRoles(identity.RoleAdmin),
	"/dashboard/admin/users":   RequireRoles(identity.RoleAdmin),
	"/dashboard/admin/billing": RequireRoles(identity.RoleAdmin),
}

// RequirementFor looks up the requirement of a presentation path. Trailing
// slashes and query strings are ignored.
func RequirementFor(path string) *Requirement {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return routeTable[path]
}
