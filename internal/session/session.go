// Package session derives a typed view of the current login from the
// credential store: token, decoded user profile, normalized role. Reads are
// tolerant by design — any malformed or missing slot is "no session", never
// an error the caller has to branch on.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mkredacao/portal-client/internal/model"
	"github.com/mkredacao/portal-client/internal/store"
)

// Token returns the bearer token, or "" when absent.
func Token(ctx context.Context, st store.Store) string {
	raw, err := st.Get(ctx, store.KeyToken)
	if err != nil {
		return ""
	}
	return store.Norm(raw)
}

// User returns the decoded profile, or nil when the slot is absent or holds
// malformed JSON. Corrupt storage must read as "no session", not crash.
func User(ctx context.Context, st store.Store) *model.UserProfile {
	raw, err := st.Get(ctx, store.KeyUser)
	if err != nil {
		return nil
	}
	raw = store.Norm(raw)
	if raw == "" {
		return nil
	}

	var u model.UserProfile
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil
	}
	return &u
}

// NormalizedRole returns the canonical role of the stored user, or "" when
// there is no decodable user.
func NormalizedRole(ctx context.Context, st store.Store) model.Role {
	return User(ctx, st).NormalizedRole()
}

// Authenticated reports whether both token and user are present.
func Authenticated(ctx context.Context, st store.Store) bool {
	return Token(ctx, st) != "" && User(ctx, st) != nil
}

// CompatKey maps a role to its legacy standalone id slot. SCHOOL accounts
// never had one.
func CompatKey(role model.Role) (store.Key, bool) {
	switch role {
	case model.RoleStudent:
		return store.KeyStudentID, true
	case model.RoleProfessor:
		return store.KeyProfessorID, true
	default:
		return "", false
	}
}

// CompatID returns the legacy id stored for the role, or "".
func CompatID(ctx context.Context, st store.Store, role model.Role) string {
	key, ok := CompatKey(role)
	if !ok {
		return ""
	}
	raw, err := st.Get(ctx, key)
	if err != nil {
		return ""
	}
	return store.Norm(raw)
}

// RoleCheckOptions tunes IsRoleSession.
type RoleCheckOptions struct {
	// AllowCompatIDOnly accepts a bare legacy id when there is no
	// token/user pair. Only pages that never call the backend may opt in;
	// the gateway reads the token directly, so this can never authorize a
	// network call.
	AllowCompatIDOnly bool
}

// IsRoleSession reports whether the stored session is valid for role.
// On success it opportunistically backfills the legacy compat id from
// user.id — the single write this otherwise read-only package performs,
// owed to older pages that still read the standalone id.
func IsRoleSession(ctx context.Context, st store.Store, role model.Role, opts ...RoleCheckOptions) bool {
	var opt RoleCheckOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	token := Token(ctx, st)
	user := User(ctx, st)

	if token == "" || user == nil {
		if opt.AllowCompatIDOnly {
			return CompatID(ctx, st, role) != ""
		}
		return false
	}

	if user.NormalizedRole() != role {
		return false
	}

	if key, ok := CompatKey(role); ok && user.ID != "" && CompatID(ctx, st, role) == "" {
		_ = st.Set(ctx, key, string(user.ID))
	}
	return true
}

// StoreLogin persists a successful login response: token, profile and the
// role's compat id in one go.
func StoreLogin(ctx context.Context, st store.Store, token string, user *model.UserProfile) error {
	if token == "" || user == nil {
		return fmt.Errorf("store login: empty token or user")
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user profile: %w", err)
	}

	if err := st.Set(ctx, store.KeyToken, token); err != nil {
		return err
	}
	if err := st.Set(ctx, store.KeyUser, string(data)); err != nil {
		return err
	}
	if key, ok := CompatKey(user.NormalizedRole()); ok && user.ID != "" {
		if err := st.Set(ctx, key, string(user.ID)); err != nil {
			return err
		}
	}
	return nil
}

// UpdateUser patches the stored profile in place and re-persists it.
// Profile flows (email, password, photo) go through here so the store stays
// the single source of truth.
func UpdateUser(ctx context.Context, st store.Store, patch func(*model.UserProfile)) error {
	u := User(ctx, st)
	if u == nil {
		return fmt.Errorf("update user: no stored session")
	}

	patch(u)

	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user profile: %w", err)
	}
	return st.Set(ctx, store.KeyUser, string(data))
}

// Logout marks an intentional logout and clears the session. The marker
// survives the clear so the next login page (or the gateway) can skip the
// "session expired" notice.
func Logout(ctx context.Context, st store.Store) error {
	if err := st.Set(ctx, store.KeyJustLoggedOut, "1"); err != nil {
		return err
	}
	return store.ClearAuth(ctx, st)
}

// JustLoggedOut reports whether the logout marker is set, without consuming it.
func JustLoggedOut(ctx context.Context, st store.Store) bool {
	raw, err := st.Get(ctx, store.KeyJustLoggedOut)
	if err != nil {
		return false
	}
	return store.Norm(raw) == "1"
}

// ConsumeJustLoggedOut reads and clears the logout marker. Login flows call
// this once at startup so the marker never suppresses a later, genuine
// expiry notice.
func ConsumeJustLoggedOut(ctx context.Context, st store.Store) bool {
	set := JustLoggedOut(ctx, st)
	if set {
		_ = st.Remove(ctx, store.KeyJustLoggedOut)
	}
	return set
}
