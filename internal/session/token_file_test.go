package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")

	f, err := OpenTokenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Authenticated() {
		t.Fatal("authenticated without a file")
	}

	if err := f.Save("tok-1"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	reopened, err := OpenTokenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := reopened.Token(); got != "tok-1" {
		t.Errorf("token = %q, want tok-1", got)
	}

	if err := reopened.Clear(); err != nil {
		t.Fatal(err)
	}
	if reopened.Authenticated() {
		t.Error("authenticated after Clear")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("token file still present: %v", err)
	}
	if err := reopened.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}
