// Package gateway is the authenticated request path. Every backend call the
// portal client makes goes through Gateway.Do, which injects the bearer
// token, classifies the response, and on an authentication failure tears the
// session down and schedules the redirect — uniformly, no matter which
// command or page issued the call.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkredacao/portal-client/internal/nav"
	"github.com/mkredacao/portal-client/internal/session"
	"github.com/mkredacao/portal-client/internal/store"
)

// AuthError is returned for 401/403 responses. It is raised regardless of
// whether a redirect was scheduled, so caller logic after the request never
// runs against a dead session.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("AUTH_%d", e.Status)
}

// RequestOptions tunes a single request.
type RequestOptions struct {
	// Headers are copied onto the request before injection rules run.
	Headers http.Header
	// RedirectTo overrides login-page inference on auth failure.
	RedirectTo string
}

// Gateway wraps an *http.Client with the session semantics. It never
// retries and never buffers: a stale token fails fast and redirects rather
// than looping.
type Gateway struct {
	BaseURL string
	HTTP    *http.Client
	Store   store.Store
	Loc     nav.Location
	Sched   nav.Scheduler
	Notif   nav.Notifier
	Routes  nav.LoginRoutes
	Delay   time.Duration
	Log     zerolog.Logger
}

// New creates a Gateway with the production scheduler and default client.
func New(baseURL string, st store.Store, loc nav.Location, notif nav.Notifier, routes nav.LoginRoutes, delay time.Duration, log zerolog.Logger) *Gateway {
	return &Gateway{
		BaseURL: baseURL,
		HTTP:    http.DefaultClient,
		Store:   st,
		Loc:     loc,
		Sched:   nav.TimerScheduler{},
		Notif:   notif,
		Routes:  routes,
		Delay:   delay,
		Log:     log.With().Str("component", "gateway").Logger(),
	}
}

// Do issues one request. Rules, in order:
//
//   - a body that is not multipart form data and has no Content-Type header
//     set (case-insensitively) gets "application/json";
//   - a stored token sets "Authorization: Bearer <token>" unless the caller
//     already set one;
//   - 401/403 clears the session (keeping the just-logged-out marker),
//     schedules a redirect when appropriate, and returns *AuthError;
//   - every other status, 2xx or not, is returned untouched — interpreting
//     those is the caller's job.
//
// The underlying call happens exactly once.
func (g *Gateway) Do(ctx context.Context, method, path string, body io.Reader, opts *RequestOptions) (*http.Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	req, err := http.NewRequestWithContext(ctx, method, g.ResolveURL(path), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for name, values := range opts.Headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	if body != nil && !hasHeader(req.Header, "Content-Type") {
		req.Header.Set("Content-Type", "application/json")
	}

	if token := session.Token(ctx, g.Store); token != "" && !hasHeader(req.Header, "Authorization") {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := g.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		g.failAuth(ctx, res, opts.RedirectTo)
		return nil, &AuthError{Status: res.StatusCode}
	}

	return res, nil
}

// failAuth is the one place session teardown happens. Safe under concurrent
// in-flight failures: clearing twice writes the same state, and only the
// first executed Replace navigates.
func (g *Gateway) failAuth(ctx context.Context, res *http.Response, redirectTo string) {
	// Snapshot before the clear — inference may still want the role.
	role := session.NormalizedRole(ctx, g.Store)
	justOut := session.JustLoggedOut(ctx, g.Store)

	_ = store.ClearAuth(ctx, g.Store)

	io.Copy(io.Discard, res.Body)
	res.Body.Close()

	g.Log.Warn().
		Int("status", res.StatusCode).
		Str("url", res.Request.URL.String()).
		Msg("Authentication failure, session cleared")

	if g.Routes.IsLoginPage(g.Loc.Path()) {
		// Already on a login page: nothing to redirect, nothing to announce.
		return
	}

	target := redirectTo
	if target == "" {
		target = nav.InferLoginPage(g.Loc.Path(), role, g.Routes)
	}

	if !justOut {
		g.Notif.Notify(nav.NotifyWarn, "Sessão expirada", "Faça login novamente para continuar.")
	}

	g.Sched.After(g.Delay, func() { g.Loc.Replace(target) })
}

// ResolveURL joins a relative path onto the base URL; absolute URLs pass
// through untouched.
func (g *Gateway) ResolveURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(g.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// hasHeader reports whether name is present, regardless of the casing the
// caller used when building the map.
func hasHeader(h http.Header, name string) bool {
	canonical := textproto.CanonicalMIMEHeaderKey(name)
	for k := range h {
		if k == canonical || strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
