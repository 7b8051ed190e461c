package nav

import (
	"path"
	"strings"

	"github.com/mkredacao/portal-client/internal/model"
)

// LoginRoutes is the fixed set of login destinations plus the forced
// password-change page. Values are frontend-relative, e.g. "login-aluno.html".
type LoginRoutes struct {
	Student        string
	Professor      string
	School         string
	Home           string
	ChangePassword string
}

// DefaultLoginRoutes matches the portal frontend's file names.
func DefaultLoginRoutes() LoginRoutes {
	return LoginRoutes{
		Student:        "login-aluno.html",
		Professor:      "login-professor.html",
		School:         "login-escola.html",
		Home:           "login.html",
		ChangePassword: "professor-atualizar-senha.html",
	}
}

// ForRole returns the login destination for a canonical role, defaulting to
// the student login for unknown roles.
func (r LoginRoutes) ForRole(role model.Role) string {
	switch role {
	case model.RoleProfessor:
		return r.Professor
	case model.RoleSchool:
		return r.School
	default:
		return r.Student
	}
}

// IsLoginPage reports whether p is one of the known login routes. The check
// is by base name so both "login-aluno.html" and "/app/login-aluno.html"
// match.
func (r LoginRoutes) IsLoginPage(p string) bool {
	base := strings.ToLower(path.Base(strings.TrimSpace(p)))
	if base == "" || base == "." || base == "/" {
		return false
	}
	for _, route := range []string{r.Student, r.Professor, r.School, r.Home} {
		if route != "" && base == strings.ToLower(path.Base(route)) {
			return true
		}
	}
	// Older builds shipped extra login-*.html variants.
	return strings.HasPrefix(base, "login")
}

// InferLoginPage maps the current path plus the session role to the login
// destination used when an auth failure has no explicit redirect target.
//
// Path hints win over the session hint on purpose: a professor who 403s on
// a school-only page should land on the school login, not their own. When
// the caller is already on a login page the default student login is
// returned so a failing call on a login page can never loop.
func InferLoginPage(p string, role model.Role, routes LoginRoutes) string {
	if routes.IsLoginPage(p) {
		return routes.Student
	}

	lower := strings.ToLower(p)
	if strings.Contains(lower, "escola") || strings.Contains(lower, "school") {
		return routes.School
	}
	if strings.Contains(lower, "professor") {
		return routes.Professor
	}

	if role != "" {
		return routes.ForRole(role)
	}
	return routes.Student
}
