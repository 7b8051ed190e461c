package guard

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkredacao/portal-client/internal/model"
	"github.com/mkredacao/portal-client/internal/nav"
	"github.com/mkredacao/portal-client/internal/store"
)

type fixture struct {
	guard *Guard
	st    *store.Memory
	loc   *nav.MemLocation
	sched *nav.ManualScheduler
}

func newFixture(t *testing.T, page string, values map[store.Key]string) *fixture {
	t.Helper()
	ctx := context.Background()

	st := store.NewMemory()
	for k, v := range values {
		if err := st.Set(ctx, k, v); err != nil {
			t.Fatal(err)
		}
	}

	loc := nav.NewMemLocation(page)
	sched := nav.NewManualScheduler()
	g := New(st, loc, nav.NopNotifier{}, nav.DefaultLoginRoutes(), 600*time.Millisecond, zerolog.New(io.Discard))
	g.Sched = sched

	return &fixture{guard: g, st: st, loc: loc, sched: sched}
}

func TestRequireRoleWrongRoleClearsAndRedirects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "/professor-salas.html", map[store.Key]string{
		store.KeyToken: "t",
		store.KeyUser:  `{"id":"1","role":"STUDENT"}`,
	})

	identity, err := f.guard.RequireRole(ctx, model.RoleProfessor, "")
	if identity != nil {
		t.Fatal("identity returned for wrong role")
	}

	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("err = %v, want *Failure", err)
	}
	if failure.Reason != ReasonInvalidSession {
		t.Errorf("reason = %s", failure.Reason)
	}
	if failure.RedirectTo != "login-professor.html" {
		t.Errorf("redirect = %q, want the professor login", failure.RedirectTo)
	}

	// Session cleared immediately, navigation after the delay.
	if v, _ := f.st.Get(ctx, store.KeyToken); v != "" {
		t.Error("token survived guard failure")
	}
	if f.loc.Replaced() != "" {
		t.Error("navigated before the delay")
	}
	f.sched.Advance(time.Second)
	if f.loc.Replaced() != "login-professor.html" {
		t.Errorf("navigated to %q", f.loc.Replaced())
	}
}

func TestRequireRoleExplicitRedirect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "/redacao.html", nil)

	_, err := f.guard.RequireRole(ctx, model.RoleStudent, "login-aluno.html?volta=redacao")
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("err = %v", err)
	}
	if failure.RedirectTo != "login-aluno.html?volta=redacao" {
		t.Errorf("redirect = %q", failure.RedirectTo)
	}
}

func TestRequireRoleValidSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "/professor-salas.html", map[store.Key]string{
		store.KeyToken: "t",
		store.KeyUser:  `{"id":"9","role":"PROFESSOR","name":"Bia"}`,
	})

	identity, err := f.guard.RequireRole(ctx, model.RoleProfessor, "")
	if err != nil {
		t.Fatalf("RequireRole: %v", err)
	}
	if identity.UserID != "9" || identity.CompatID != "9" || identity.Role != model.RoleProfessor {
		t.Errorf("identity = %+v", identity)
	}

	// Compat id must now be backfilled for older pages.
	if v, _ := f.st.Get(ctx, store.KeyProfessorID); v != "9" {
		t.Errorf("professorId = %q, want 9", v)
	}
	if f.sched.Pending() != 0 {
		t.Error("no navigation should be scheduled on success")
	}
}

func TestRequireRoleForcedPasswordChange(t *testing.T) {
	ctx := context.Background()
	user := `{"id":"9","role":"PROFESSOR","professorType":"SCHOOL","mustChangePassword":true}`

	f := newFixture(t, "/professor-salas.html", map[store.Key]string{
		store.KeyToken: "t",
		store.KeyUser:  user,
	})

	_, err := f.guard.RequireRole(ctx, model.RoleProfessor, "")
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("err = %v", err)
	}
	if failure.Reason != ReasonPasswordChangeRequired {
		t.Errorf("reason = %s", failure.Reason)
	}
	if failure.RedirectTo != "professor-atualizar-senha.html" {
		t.Errorf("redirect = %q", failure.RedirectTo)
	}
	// The session itself is fine: no clear.
	if v, _ := f.st.Get(ctx, store.KeyToken); v != "t" {
		t.Error("valid session was cleared by the password gate")
	}

	// On the password page itself the same session passes.
	f2 := newFixture(t, "/professor-atualizar-senha.html", map[store.Key]string{
		store.KeyToken: "t",
		store.KeyUser:  user,
	})
	if _, err := f2.guard.RequireRole(ctx, model.RoleProfessor, ""); err != nil {
		t.Fatalf("guard on the password page: %v", err)
	}
}

func TestRequireRoleIndependentProfessorIgnoresFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "/professor-salas.html", map[store.Key]string{
		store.KeyToken: "t",
		store.KeyUser:  `{"id":"9","role":"PROFESSOR","professorType":"INDEPENDENT","mustChangePassword":true}`,
	})

	// The forced-change gate only applies to school-managed professors.
	if _, err := f.guard.RequireRole(ctx, model.RoleProfessor, ""); err != nil {
		t.Fatalf("RequireRole: %v", err)
	}
}

func TestRequireRoleSchoolIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "/painel-escola.html", map[store.Key]string{
		store.KeyToken: "t",
		store.KeyUser:  `{"id":"s1","role":"ESCOLA"}`,
	})

	identity, err := f.guard.RequireRole(ctx, model.RoleSchool, "")
	if err != nil {
		t.Fatalf("RequireRole: %v", err)
	}
	// Schools have no legacy slot; the compat id falls back to user.id.
	if identity.CompatID != "s1" {
		t.Errorf("CompatID = %q", identity.CompatID)
	}
}

func TestRequireRoleMissingIdentityFailsClosed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "/painel-aluno.html", map[store.Key]string{
		store.KeyToken: "t",
		store.KeyUser:  `{"role":"STUDENT"}`,
	})

	_, err := f.guard.RequireRole(ctx, model.RoleStudent, "")
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("err = %v, want *Failure", err)
	}
	if failure.Reason != ReasonInvalidSession {
		t.Errorf("reason = %s", failure.Reason)
	}
}
