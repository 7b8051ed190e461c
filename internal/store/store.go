// Package store is the credential store: the canonical key-value storage
// for the session token, the persisted user profile and the legacy
// compatibility ids. It mirrors the layout older portal builds kept in the
// browser's localStorage, so the keys are a fixed, enumerated set.
package store

import (
	"context"
	"strings"
)

// Key identifies one credential slot.
type Key string

const (
	KeyToken       Key = "token"
	KeyUser        Key = "user"
	KeyProfessorID Key = "professorId"
	KeyStudentID   Key = "studentId"

	// KeyJustLoggedOut is a transient marker set by an intentional logout.
	// It suppresses the duplicate "session expired" notice that would
	// otherwise fire when a cleared session hits a guarded page.
	KeyJustLoggedOut Key = "mk_just_logged_out"
)

// AuthKeys are the slots that make up a session. ClearAuth removes exactly
// these; the just-logged-out flag is handled separately.
var AuthKeys = []Key{KeyToken, KeyUser, KeyProfessorID, KeyStudentID}

// Store is the minimal contract every backend implements.
// Get returns ("", nil) for an absent key.
type Store interface {
	Get(ctx context.Context, key Key) (string, error)
	Set(ctx context.Context, key Key, value string) error
	Remove(ctx context.Context, key Key) error
}

// ClearOptions tunes ClearAuth.
type ClearOptions struct {
	// IncludeLogoutFlag also removes the just-logged-out marker.
	// The default keeps it so a fresh login page can consume it.
	IncludeLogoutFlag bool
}

// ClearAuth removes every auth key. It is idempotent: clearing an already
// empty store is a no-op, and concurrent clears during a failure cascade all
// write the same final state.
func ClearAuth(ctx context.Context, st Store, opts ...ClearOptions) error {
	var firstErr error
	for _, key := range AuthKeys {
		if err := st.Remove(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if len(opts) > 0 && opts[0].IncludeLogoutFlag {
		if err := st.Remove(ctx, KeyJustLoggedOut); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Norm canonicalizes a stored value. Older pages wrote the literal strings
// "undefined" and "null" into localStorage; those read back as empty.
func Norm(v string) string {
	s := strings.TrimSpace(v)
	if s == "" || s == "undefined" || s == "null" {
		return ""
	}
	return s
}
