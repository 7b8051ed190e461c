package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNorm(t *testing.T) {
	cases := map[string]string{
		"":            "",
		"  ":          "",
		"undefined":   "",
		"null":        "",
		" 42 ":        "42",
		"abc":         "abc",
		"undefined2":  "undefined2",
		" undefined ": "",
	}
	for in, want := range cases {
		if got := Norm(in); got != want {
			t.Errorf("Norm(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClearAuthRemovesAuthKeysKeepsFlag(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	for _, key := range AuthKeys {
		st.Set(ctx, key, "x")
	}
	st.Set(ctx, KeyJustLoggedOut, "1")

	if err := ClearAuth(ctx, st); err != nil {
		t.Fatalf("ClearAuth: %v", err)
	}

	for _, key := range AuthKeys {
		if v, _ := st.Get(ctx, key); v != "" {
			t.Errorf("key %s survived clear: %q", key, v)
		}
	}
	if v, _ := st.Get(ctx, KeyJustLoggedOut); v != "1" {
		t.Errorf("just-logged-out flag was cleared, want preserved")
	}
}

func TestClearAuthIncludeLogoutFlag(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	st.Set(ctx, KeyToken, "t")
	st.Set(ctx, KeyJustLoggedOut, "1")

	if err := ClearAuth(ctx, st, ClearOptions{IncludeLogoutFlag: true}); err != nil {
		t.Fatalf("ClearAuth: %v", err)
	}
	if v, _ := st.Get(ctx, KeyJustLoggedOut); v != "" {
		t.Errorf("flag survived opted-in clear: %q", v)
	}
}

func TestClearAuthIdempotent(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	st.Set(ctx, KeyToken, "t")
	st.Set(ctx, KeyUser, `{"id":"1"}`)

	if err := ClearAuth(ctx, st); err != nil {
		t.Fatalf("first clear: %v", err)
	}
	if err := ClearAuth(ctx, st); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	for _, key := range AuthKeys {
		if v, _ := st.Get(ctx, key); v != "" {
			t.Errorf("key %s not empty after double clear", key)
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	st := NewFile(path)

	if v, err := st.Get(ctx, KeyToken); err != nil || v != "" {
		t.Fatalf("Get on missing file = (%q, %v), want empty", v, err)
	}

	if err := st.Set(ctx, KeyToken, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := st.Set(ctx, KeyStudentID, "42"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh handle must observe the same data (cross-process contract).
	st2 := NewFile(path)
	if v, _ := st2.Get(ctx, KeyToken); v != "abc" {
		t.Errorf("token = %q, want abc", v)
	}

	if err := st2.Remove(ctx, KeyToken); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if v, _ := st.Get(ctx, KeyToken); v != "" {
		t.Errorf("token survived remove: %q", v)
	}
	if v, _ := st.Get(ctx, KeyStudentID); v != "42" {
		t.Errorf("studentId = %q, want 42", v)
	}
}

func TestFileStoreCorruptFileReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	st := NewFile(path)
	if v, err := st.Get(ctx, KeyToken); err != nil || v != "" {
		t.Errorf("Get on corrupt file = (%q, %v), want empty, nil", v, err)
	}

	// Writing over the corrupt file must work and re-establish valid JSON.
	if err := st.Set(ctx, KeyToken, "t"); err != nil {
		t.Fatalf("Set over corrupt file: %v", err)
	}
	if v, _ := st.Get(ctx, KeyToken); v != "t" {
		t.Errorf("token = %q, want t", v)
	}
}

func TestBuildUnknownBackend(t *testing.T) {
	if _, err := Build(context.Background(), "etcd", "", "", "", testLogger()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
