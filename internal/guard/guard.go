// Package guard runs the pre-page role check: every protected surface calls
// RequireRole before doing anything else and stops dead when it fails. Once
// a guard has scheduled a redirect, no page logic may run behind it.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkredacao/portal-client/internal/model"
	"github.com/mkredacao/portal-client/internal/nav"
	"github.com/mkredacao/portal-client/internal/session"
	"github.com/mkredacao/portal-client/internal/store"
)

// Reason classifies a guard failure.
type Reason string

const (
	// ReasonInvalidSession covers everything that reads as "not logged in
	// as the required role": missing token, malformed user, wrong role,
	// unresolvable compat id.
	ReasonInvalidSession Reason = "INVALID_SESSION"
	// ReasonPasswordChangeRequired fires when the account is valid but a
	// forced password change is pending and the caller is not on the
	// password-change page.
	ReasonPasswordChangeRequired Reason = "PASSWORD_CHANGE_REQUIRED"
)

// Failure is the terminating error a failed guard returns. Callers must not
// run page logic after seeing one; the redirect is already scheduled.
type Failure struct {
	Reason     Reason
	RedirectTo string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("guard: %s (redirecting to %s)", f.Reason, f.RedirectTo)
}

// Identity is the resolved session a passing guard hands back. CompatID is
// guaranteed non-empty.
type Identity struct {
	UserID   string
	CompatID string
	Role     model.Role
	User     *model.UserProfile
}

// Guard wires the session check to its side effects: clearing credentials,
// notifying, and scheduling the redirect.
type Guard struct {
	Store  store.Store
	Loc    nav.Location
	Sched  nav.Scheduler
	Notif  nav.Notifier
	Routes nav.LoginRoutes
	Delay  time.Duration
	Log    zerolog.Logger
}

// New creates a Guard with the production scheduler.
func New(st store.Store, loc nav.Location, notif nav.Notifier, routes nav.LoginRoutes, delay time.Duration, log zerolog.Logger) *Guard {
	return &Guard{
		Store:  st,
		Loc:    loc,
		Sched:  nav.TimerScheduler{},
		Notif:  notif,
		Routes: routes,
		Delay:  delay,
		Log:    log.With().Str("component", "guard").Logger(),
	}
}

// RequireRole validates the stored session against role. On failure it
// clears the session, schedules a full-page replace to redirectTo (or the
// role's login page when redirectTo is empty) and returns a *Failure.
//
// A valid role with a pending forced password change redirects to the
// password-change page instead — without clearing, the session itself is
// fine — unless the caller is already there.
func (g *Guard) RequireRole(ctx context.Context, role model.Role, redirectTo string) (*Identity, error) {
	if !session.IsRoleSession(ctx, g.Store, role) {
		return nil, g.reject(ctx, role, redirectTo)
	}

	user := session.User(ctx, g.Store)
	if user.ForcedPasswordChange() && !samePage(g.Loc.Path(), g.Routes.ChangePassword) {
		target := g.Routes.ChangePassword
		g.Log.Warn().Str("path", g.Loc.Path()).Msg("Forced password change pending")
		g.Notif.Notify(nav.NotifyWarn, "Atualize sua senha", "Defina uma nova senha para continuar.")
		g.schedule(target)
		return nil, &Failure{Reason: ReasonPasswordChangeRequired, RedirectTo: target}
	}

	compat := session.CompatID(ctx, g.Store, role)
	if compat == "" {
		compat = string(user.ID)
	}
	if compat == "" {
		// Backfill could not produce an id either; fail closed.
		return nil, g.reject(ctx, role, redirectTo)
	}

	return &Identity{
		UserID:   string(user.ID),
		CompatID: compat,
		Role:     role,
		User:     user,
	}, nil
}

func (g *Guard) reject(ctx context.Context, role model.Role, redirectTo string) error {
	target := redirectTo
	if target == "" {
		target = g.Routes.ForRole(role)
	}

	_ = store.ClearAuth(ctx, g.Store)

	g.Log.Warn().
		Str("required_role", string(role)).
		Str("redirect", target).
		Msg("Session invalid for required role")
	g.Notif.Notify(nav.NotifyWarn, "Sessão inválida", "Faça login novamente para continuar.")
	g.schedule(target)

	return &Failure{Reason: ReasonInvalidSession, RedirectTo: target}
}

func (g *Guard) schedule(target string) {
	g.Sched.After(g.Delay, func() { g.Loc.Replace(target) })
}

func samePage(current, route string) bool {
	if route == "" {
		return false
	}
	return pageBase(current) == pageBase(route)
}

func pageBase(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
