package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ProfessorType distinguishes professors managed by a school from
// independent ones.
type ProfessorType string

const (
	ProfessorTypeSchool      ProfessorType = "SCHOOL"
	ProfessorTypeIndependent ProfessorType = "INDEPENDENT"
)

// FlexID is an identifier that older backend versions serialize as a JSON
// number and newer ones as a string. It always reads back as a string.
type FlexID string

// UnmarshalJSON accepts both `"42"` and `42`.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

// MarshalJSON always emits a string so a round-trip through the credential
// store is stable.
func (id FlexID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(id))), nil
}

// UserProfile is the persisted user record, stored JSON-encoded under the
// "user" credential key after login and patched in place by profile flows.
type UserProfile struct {
	ID                 FlexID        `json:"id"`
	Role               string        `json:"role"`
	MustChangePassword bool          `json:"mustChangePassword,omitempty"`
	ProfessorType      ProfessorType `json:"professorType,omitempty"`
	Email              string        `json:"email,omitempty"`
	Name               string        `json:"name,omitempty"`
	PhotoURL           string        `json:"photoUrl,omitempty"`
}

// NormalizedRole returns the canonical role of the profile.
func (u *UserProfile) NormalizedRole() Role {
	if u == nil {
		return ""
	}
	return NormalizeRole(u.Role)
}

// SchoolManagedProfessor reports whether the profile belongs to a professor
// whose account is owned by a school (first-login password rules apply).
func (u *UserProfile) SchoolManagedProfessor() bool {
	return u != nil &&
		u.NormalizedRole() == RoleProfessor &&
		strings.EqualFold(strings.TrimSpace(string(u.ProfessorType)), string(ProfessorTypeSchool))
}

// ForcedPasswordChange reports whether every page except the password-change
// page must redirect there: the backend set mustChangePassword on a
// school-managed professor account.
func (u *UserProfile) ForcedPasswordChange() bool {
	return u != nil && u.MustChangePassword && u.SchoolManagedProfessor()
}
