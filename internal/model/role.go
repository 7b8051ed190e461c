package model

import "strings"

// Role is the canonical account role used across the portal.
type Role string

const (
	RoleStudent   Role = "STUDENT"
	RoleProfessor Role = "PROFESSOR"
	RoleSchool    Role = "SCHOOL"
)

// NormalizeRole maps a raw role string to one of the canonical roles.
// Legacy synonyms (ALUNO, TEACHER, ESCOLA) written by older backend
// versions are accepted; unknown values map to "".
func NormalizeRole(raw string) Role {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "STUDENT", "ALUNO":
		return RoleStudent
	case "PROFESSOR", "TEACHER":
		return RoleProfessor
	case "SCHOOL", "ESCOLA":
		return RoleSchool
	default:
		return ""
	}
}
