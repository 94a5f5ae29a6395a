package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/hacknet/portal/internal/database"
	"github.com/hacknet/portal/internal/migrations"
)

func testSealer(t *testing.T) *Sealer {
	t.Helper()
	s, err := NewSealer("test-secret")
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	return s
}

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLStore(db, testSealer(t), time.Hour)
}

func signedToken(t *testing.T, sub string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestSealRoundTrip(t *testing.T) {
	s := testSealer(t)
	sealed, err := s.Seal("secret-token")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if sealed == "secret-token" {
		t.Fatal("sealed value equals plaintext")
	}
	got, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got != "secret-token" {
		t.Errorf("open = %q", got)
	}

	other, _ := NewSealer("other-secret")
	if _, err := other.Open(sealed); err == nil {
		t.Error("open with wrong key succeeded")
	}
	if _, err := s.Open("not-base64!"); err == nil {
		t.Error("open of garbage succeeded")
	}
}

func TestNewSealerRejectsEmpty(t *testing.T) {
	if _, err := NewSealer(""); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestSubjectOf(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"jwt", signedToken(t, "42"), "42"},
		{"opaque", "not-a-jwt", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SubjectOf(tt.token); got != tt.want {
				t.Errorf("SubjectOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSQLStoreLifecycle(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()
	token := signedToken(t, "7")

	rec, err := store.Create(ctx, token)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" || rec.Subject != "7" {
		t.Fatalf("record = %+v", rec)
	}

	var sealed string
	if err := store.db.QueryRow(`SELECT token_sealed FROM sessions WHERE id = ?`, rec.ID).Scan(&sealed); err != nil {
		t.Fatalf("select: %v", err)
	}
	if sealed == token {
		t.Error("token stored in plain text")
	}

	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Token != token || !IsAuthenticated(got) {
		t.Errorf("get = %+v", got)
	}

	if err := store.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}
}

func TestSQLStoreExpiry(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, "tok")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := store.Get(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired get err = %v, want ErrNotFound", err)
	}
	n, err := store.Purge(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}
}

func TestUnauthorizedHookClearsStore(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, "tok")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sess := New(rec)
	if !sess.Authenticated() {
		t.Fatal("fresh session not authenticated")
	}

	sess.UnauthorizedHook(store, slog.New(slog.NewTextHandler(io.Discard, nil)))()

	if sess.Token() != "" || !sess.Invalidated() || sess.Authenticated() {
		t.Errorf("session not invalidated: token=%q", sess.Token())
	}
	if _, err := store.Get(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("stored session survived: %v", err)
	}
}

func TestSQLStoreDropsUnreadableSession(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, "tok")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rotated, err := NewSealer("rotated-secret")
	if err != nil {
		t.Fatal(err)
	}
	store.sealer = rotated
	if _, err := store.Get(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get with rotated key err = %v, want ErrNotFound", err)
	}

	var n int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE id = ?`, rec.ID).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Error("unreadable session row kept")
	}
}

type failingStore struct{ Store }

func (failingStore) Delete(ctx context.Context, id string) error {
	return errors.New("disk full")
}

func TestUnauthorizedHookLogsFailedDelete(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	sess := New(Record{ID: "s1", Token: "tok", Subject: "7"})
	sess.UnauthorizedHook(failingStore{}, logger)()

	if !sess.Invalidated() {
		t.Error("session not invalidated")
	}
	out := logs.String()
	if !strings.Contains(out, "deleting rejected session") || !strings.Contains(out, "disk full") {
		t.Errorf("log = %q", out)
	}
}

func TestGateRedirect(t *testing.T) {
	g := DefaultGate()
	tests := []struct {
		path          string
		authenticated bool
		want          string
	}{
		{"/", false, "/login"},
		{"/", true, "/home"},
		{"/championship", false, "/login"},
		{"/education/12", false, "/login"},
		{"/championship", true, ""},
		{"/login", true, "/home"},
		{"/register", true, "/home"},
		{"/login", false, ""},
		{"/register", false, ""},
		{"/assets/app.js", false, ""},
		{"/homepage-banner.png", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := g.Redirect(tt.path, tt.authenticated); got != tt.want {
				t.Errorf("Redirect(%q, %v) = %q, want %q", tt.path, tt.authenticated, got, tt.want)
			}
		})
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	store := NewRedisStore(rdb, testSealer(t), time.Minute)
	if err := store.Check(ctx); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}

	rec, err := store.Create(ctx, "tok")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.Get(ctx, rec.ID)
	if err != nil || got.Token != "tok" {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if err := store.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete err = %v", err)
	}
}
