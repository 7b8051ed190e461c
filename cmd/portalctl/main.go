// portalctl is the headless counterpart of the portal frontend: the same
// login/session/request flows the pages run, driven from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkredacao/portal-client/internal/api"
	"github.com/mkredacao/portal-client/internal/config"
	"github.com/mkredacao/portal-client/internal/gateway"
	"github.com/mkredacao/portal-client/internal/guard"
	"github.com/mkredacao/portal-client/internal/logger"
	"github.com/mkredacao/portal-client/internal/model"
	"github.com/mkredacao/portal-client/internal/nav"
	"github.com/mkredacao/portal-client/internal/session"
	"github.com/mkredacao/portal-client/internal/store"
	"github.com/mkredacao/portal-client/internal/validator"
)

const usage = `portalctl — cliente do portal de redações

Uso:
  portalctl login    [-role aluno|professor|escola] [-email EMAIL]
  portalctl logout
  portalctl whoami
  portalctl rooms    <list|create|delete|overview|join|leave> [flags]
  portalctl tasks    list -room ID
  portalctl essays   <show|draft|submit|feedback> [flags]
  portalctl password first
  portalctl profile  <update|delete> [flags]
`

// app bundles everything a command needs. It is built once per invocation,
// the CLI's equivalent of a page load.
type app struct {
	ctx    context.Context
	cfg    *config.Config
	log    zerolog.Logger
	st     store.Store
	loc    *termLocation
	client *api.Client
}

// termLocation adapts the page-navigation contract to a terminal: Path is
// the pseudo-page of the running command and Replace prints where the user
// must go. Only the first Replace is announced.
type termLocation struct {
	path   string
	log    zerolog.Logger
	landed bool
}

func (l *termLocation) Path() string { return l.path }

func (l *termLocation) Replace(url string) {
	if l.landed {
		return
	}
	l.landed = true
	fmt.Fprintf(os.Stderr, "\n→ Abra %s para entrar novamente.\n", url)
}

func newApp(page string) *app {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx := context.Background()

	st, err := store.Build(ctx, cfg.StoreBackend, cfg.StorePath, cfg.RedisURL, cfg.RedisKeyPrefix, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open credential store")
	}

	loc := &termLocation{path: page, log: log}
	gw := gateway.New(cfg.APIBaseURL, st, loc, nav.LogNotifier{Log: log}, cfg.LoginRoutes(), cfg.RedirectDelay, log)
	// A terminal has no pending toast to wait for; run the redirect hint
	// synchronously so it is printed before the process exits.
	gw.Sched = immediateScheduler{}

	return &app{
		ctx:    ctx,
		cfg:    cfg,
		log:    log,
		st:     st,
		loc:    loc,
		client: api.NewClient(gw),
	}
}

// guardFor runs the pre-command role check, exactly like a page guard.
func (a *app) guardFor(role model.Role) (*guard.Identity, error) {
	g := guard.New(a.st, a.loc, nav.LogNotifier{Log: a.log}, a.cfg.LoginRoutes(), a.cfg.RedirectDelay, a.log)
	g.Sched = immediateScheduler{}
	return g.RequireRole(a.ctx, role, "")
}

// guardStored guards against whatever role the store currently holds.
func (a *app) guardStored() (*guard.Identity, error) {
	role := session.NormalizedRole(a.ctx, a.st)
	if role == "" {
		return nil, fmt.Errorf("nenhuma sessão ativa; use `portalctl login`")
	}
	return a.guardFor(role)
}

// immediateScheduler runs scheduled navigation synchronously. A process
// that is about to exit has no event loop for a delayed redirect to render
// into; the notice is already on screen by the time Replace prints.
type immediateScheduler struct{}

type doneHandle struct{}

func (doneHandle) Cancel() bool { return false }

func (immediateScheduler) After(_ time.Duration, fn func()) nav.TaskHandle {
	fn()
	return doneHandle{}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "login":
		err = runLogin(os.Args[2:])
	case "logout":
		err = runLogout()
	case "whoami":
		err = runWhoami()
	case "rooms":
		err = runRooms(os.Args[2:])
	case "tasks":
		err = runTasks(os.Args[2:])
	case "essays":
		err = runEssays(os.Args[2:])
	case "password":
		err = runPassword(os.Args[2:])
	case "profile":
		err = runProfile(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "comando desconhecido: %s\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "erro: %v\n", err)
		os.Exit(1)
	}
}
