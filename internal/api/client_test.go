package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkredacao/portal-client/internal/gateway"
	"github.com/mkredacao/portal-client/internal/nav"
	"github.com/mkredacao/portal-client/internal/store"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, store.Store) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	st := store.NewMemory()
	gw := gateway.New(server.URL, st, nav.NewMemLocation("/painel-aluno.html"), nav.NopNotifier{}, nav.DefaultLoginRoutes(), 600*time.Millisecond, zerolog.New(io.Discard))
	gw.HTTP = server.Client()
	gw.Sched = nav.NewManualScheduler()

	return NewClient(gw), st
}

func TestClientGetUnwrapsEnvelope(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rooms/by-professor" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":[{"id":7,"name":"3A"},{"id":"8","name":"3B"}]}`))
	})

	rooms, err := c.RoomsByProfessor(context.Background(), "9")
	if err != nil {
		t.Fatalf("RoomsByProfessor: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("rooms = %+v", rooms)
	}
	// Numeric and string ids both land as strings.
	if rooms[0].ID != "7" || rooms[1].ID != "8" {
		t.Errorf("ids = %q, %q", rooms[0].ID, rooms[1].ID)
	}
}

func TestClientNonOKBecomesRequestError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"sala já existe"}`))
	})

	_, err := c.CreateRoom(context.Background(), "3A", "9")
	var re *RequestError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *RequestError", err)
	}
	if re.Status != http.StatusConflict || re.Message != "sala já existe" {
		t.Errorf("err = %+v", re)
	}
}

func TestClientEssayByTaskNotFoundIsNotAnError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"essay not found"}`))
	})

	essay, err := c.EssayByTask(context.Background(), "1", "2")
	if err != nil {
		t.Fatalf("a missing draft is not an error: %v", err)
	}
	if essay != nil {
		t.Errorf("essay = %+v, want nil", essay)
	}
}

func TestClientLoginBypassesAuthTeardown(t *testing.T) {
	c, st := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"credenciais inválidas"}`))
	})

	ctx := context.Background()
	// A live session from another role must survive a failed login attempt.
	st.Set(ctx, store.KeyToken, "existing")

	_, err := c.Login(ctx, LoginRequest{Email: "a@b.com", Password: "wrong"})
	var re *RequestError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *RequestError", err)
	}
	if re.Message != "credenciais inválidas" {
		t.Errorf("message = %q", re.Message)
	}

	if v, _ := st.Get(ctx, store.KeyToken); v != "existing" {
		t.Error("failed login must not clear the stored session")
	}
}

func TestClientLoginSuccess(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"t1","user":{"id":5,"role":"ALUNO","name":"Ana"}}`))
	})

	out, err := c.Login(context.Background(), LoginRequest{Email: "ana@x.com", Password: "s"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if out.Token != "t1" || out.User == nil || out.User.ID != "5" {
		t.Errorf("out = %+v", out)
	}
	if out.User.NormalizedRole() != "STUDENT" {
		t.Errorf("role = %q", out.User.NormalizedRole())
	}
}

func TestJoinResultResolvedRoomID(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"roomId":"10"}`, "10"},
		{`{"id":11}`, "11"},
		{`{"room":{"id":"12","name":"3C"}}`, "12"},
	}

	for _, tc := range cases {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(tc.body))
		})
		out, err := c.JoinRoom(context.Background(), "ABC123", "5")
		if err != nil {
			t.Fatalf("JoinRoom(%s): %v", tc.body, err)
		}
		if out.ResolvedRoomID() != tc.want {
			t.Errorf("ResolvedRoomID(%s) = %q, want %q", tc.body, out.ResolvedRoomID(), tc.want)
		}
	}
}
