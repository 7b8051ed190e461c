package session

import (
	"context"
	"testing"

	"github.com/mkredacao/portal-client/internal/model"
	"github.com/mkredacao/portal-client/internal/store"
)

func seed(t *testing.T, values map[store.Key]string) store.Store {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemory()
	for k, v := range values {
		if err := st.Set(ctx, k, v); err != nil {
			t.Fatal(err)
		}
	}
	return st
}

func TestUserMalformedJSON(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"{", "[1,2", "not json at all", `{"id":`, "undefined", "null"} {
		st := seed(t, map[store.Key]string{store.KeyUser: raw})
		if u := User(ctx, st); u != nil {
			t.Errorf("User with raw %q = %+v, want nil", raw, u)
		}
		if r := NormalizedRole(ctx, st); r != "" {
			t.Errorf("NormalizedRole with raw %q = %q, want empty", raw, r)
		}
	}
}

func TestNormalizedRoleSynonyms(t *testing.T) {
	cases := map[string]model.Role{
		"STUDENT":    model.RoleStudent,
		"ALUNO":      model.RoleStudent,
		"student":    model.RoleStudent,
		" aluno ":    model.RoleStudent,
		"PROFESSOR":  model.RoleProfessor,
		"TEACHER":    model.RoleProfessor,
		"teacher":    model.RoleProfessor,
		"SCHOOL":     model.RoleSchool,
		"ESCOLA":     model.RoleSchool,
		"escola":     model.RoleSchool,
		"ADMIN":      "",
		"":           "",
		"STUDENTZZZ": "",
	}
	for raw, want := range cases {
		if got := model.NormalizeRole(raw); got != want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestIsRoleSessionMatch(t *testing.T) {
	ctx := context.Background()
	st := seed(t, map[store.Key]string{
		store.KeyToken: "t",
		store.KeyUser:  `{"id":"7","role":"TEACHER"}`,
	})

	if !IsRoleSession(ctx, st, model.RoleProfessor) {
		t.Fatal("expected professor session to validate")
	}
	if IsRoleSession(ctx, st, model.RoleStudent) {
		t.Fatal("student check must fail for a professor session")
	}
}

func TestIsRoleSessionBackfillsCompatID(t *testing.T) {
	ctx := context.Background()
	st := seed(t, map[store.Key]string{
		store.KeyToken: "t",
		store.KeyUser:  `{"id":7,"role":"ALUNO"}`,
	})

	if !IsRoleSession(ctx, st, model.RoleStudent) {
		t.Fatal("expected student session to validate")
	}
	if v, _ := st.Get(ctx, store.KeyStudentID); v != "7" {
		t.Errorf("studentId = %q, want backfilled 7", v)
	}
	// A professor id must not appear.
	if v, _ := st.Get(ctx, store.KeyProfessorID); v != "" {
		t.Errorf("professorId = %q, want empty", v)
	}
}

func TestIsRoleSessionCompatFallback(t *testing.T) {
	ctx := context.Background()
	st := seed(t, map[store.Key]string{store.KeyProfessorID: "33"})

	// Default is fail closed: no token/user means no session.
	if IsRoleSession(ctx, st, model.RoleProfessor) {
		t.Fatal("compat id alone must not validate by default")
	}
	if !IsRoleSession(ctx, st, model.RoleProfessor, RoleCheckOptions{AllowCompatIDOnly: true}) {
		t.Fatal("compat fallback should validate when opted in")
	}
	// Legacy junk values read as absent.
	st.Set(ctx, store.KeyProfessorID, "undefined")
	if IsRoleSession(ctx, st, model.RoleProfessor, RoleCheckOptions{AllowCompatIDOnly: true}) {
		t.Fatal(`"undefined" compat id must not validate`)
	}
}

func TestStoreLoginAndAuthenticated(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	err := StoreLogin(ctx, st, "tok", &model.UserProfile{ID: "5", Role: "STUDENT", Name: "Ana"})
	if err != nil {
		t.Fatalf("StoreLogin: %v", err)
	}

	if !Authenticated(ctx, st) {
		t.Fatal("expected authenticated session")
	}
	if v, _ := st.Get(ctx, store.KeyStudentID); v != "5" {
		t.Errorf("studentId = %q, want 5", v)
	}
	if u := User(ctx, st); u == nil || u.Name != "Ana" {
		t.Errorf("stored user = %+v", u)
	}

	if err := StoreLogin(ctx, st, "", nil); err == nil {
		t.Fatal("StoreLogin with empty token must fail")
	}
}

func TestUpdateUserPatchesInPlace(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	if err := StoreLogin(ctx, st, "tok", &model.UserProfile{ID: "5", Role: "PROFESSOR", MustChangePassword: true}); err != nil {
		t.Fatal(err)
	}

	err := UpdateUser(ctx, st, func(u *model.UserProfile) {
		u.MustChangePassword = false
		u.Email = "novo@example.com"
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	u := User(ctx, st)
	if u == nil || u.MustChangePassword || u.Email != "novo@example.com" {
		t.Errorf("patched user = %+v", u)
	}
}

func TestLogoutSetsFlagAndClears(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	if err := StoreLogin(ctx, st, "tok", &model.UserProfile{ID: "5", Role: "STUDENT"}); err != nil {
		t.Fatal(err)
	}

	if err := Logout(ctx, st); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if Authenticated(ctx, st) {
		t.Fatal("session survived logout")
	}
	if !JustLoggedOut(ctx, st) {
		t.Fatal("logout marker missing")
	}
	if !ConsumeJustLoggedOut(ctx, st) {
		t.Fatal("consume should report the marker")
	}
	if JustLoggedOut(ctx, st) {
		t.Fatal("marker survived consumption")
	}
	if ConsumeJustLoggedOut(ctx, st) {
		t.Fatal("second consume should be false")
	}
}
