package server

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/database"
	"github.com/hacknet/portal/internal/migrations"
	"github.com/hacknet/portal/internal/profile"
	"github.com/hacknet/portal/internal/session"
)

type testEnv struct {
	backend *http.ServeMux
	db      *sql.DB
	deps    *Deps
	portal  *httptest.Server
	client  *http.Client
}

type envOptions struct {
	csrfKey []byte
	spaDir  string
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	ctx := context.Background()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Неверный email или пароль"}`))
			return
		}
		w.Write([]byte(`{"access_token":"tok-neo","token_type":"bearer"}`))
	})
	backendSrv := httptest.NewServer(mux)
	t.Cleanup(backendSrv.Close)

	api, err := backend.New(backendSrv.URL)
	if err != nil {
		t.Fatalf("backend client: %v", err)
	}

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sealer, err := session.NewSealer("test-secret")
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}

	deps := Deps{
		Backend:    api,
		Sessions:   session.NewSQLStore(db, sealer, time.Hour),
		Workspaces: session.NewRegistry(NewWorkspace),
		Broker:     profile.NewBroker(),
		CSRFKey:    opts.csrfKey,
		SPADir:     opts.spaDir,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New("", logger, deps, nil)
	portal := httptest.NewServer(srv.Handler())
	t.Cleanup(portal.Close)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{backend: mux, db: db, deps: &deps, portal: portal, client: client}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header http.Header) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.portal.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/session/login",
		LoginRequest{Email: "neo@hacknet.ru", Password: "secret"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", resp.StatusCode, body)
	}
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestLoginOpensContest(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	var auth atomic.Value
	env.backend.HandleFunc("GET /contests/active", func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":1,"title":"Весенний CTF","start_at":"2026-03-01T00:00:00Z","end_at":"2026-12-01T00:00:00Z","is_public":true,"tasks_total":3}`))
	})
	env.backend.HandleFunc("GET /contests/1/current-task", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"not joined"}`))
	})

	resp, body := env.do(t, http.MethodGet, "/api/contest", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", resp.StatusCode)
	}
	if got := decode[ErrorResponse](t, body).Redirect; got != session.LoginPath {
		t.Errorf("anonymous redirect = %q, want %q", got, session.LoginPath)
	}

	resp, body = env.do(t, http.MethodPost, "/api/session/login",
		LoginRequest{Email: "neo@hacknet.ru", Password: "secret"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", resp.StatusCode, body)
	}
	if got := decode[SessionResponse](t, body); !got.Authenticated || got.Redirect != "/welcome" {
		t.Errorf("login response = %+v", got)
	}

	resp, body = env.do(t, http.MethodGet, "/api/contest", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("contest status = %d, body = %s", resp.StatusCode, body)
	}
	type contestView struct {
		State   string `json:"state"`
		Contest struct {
			Title string `json:"title"`
		} `json:"contest"`
	}
	view := decode[contestView](t, body)
	if view.State != "unjoined" || view.Contest.Title != "Весенний CTF" {
		t.Errorf("view = %+v", view)
	}
	if got := auth.Load(); got != "Bearer tok-neo" {
		t.Errorf("backend Authorization = %v, want Bearer tok-neo", got)
	}
	if n := env.deps.Workspaces.Len(); n != 1 {
		t.Errorf("workspaces = %d, want 1", n)
	}
}

func TestLoginFailure(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	resp, body := env.do(t, http.MethodPost, "/api/session/login",
		LoginRequest{Email: "neo@hacknet.ru", Password: "wrong"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if got := decode[ErrorResponse](t, body).Error; got != "Неверный email или пароль" {
		t.Errorf("error = %q", got)
	}

	_, body = env.do(t, http.MethodGet, "/api/session", nil, nil)
	if decode[SessionResponse](t, body).Authenticated {
		t.Error("session authenticated after failed login")
	}
}

func TestBackendUnauthorizedEndsSession(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.backend.HandleFunc("GET /contests/active", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	})
	env.login(t)

	resp, body := env.do(t, http.MethodGet, "/api/contest", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	got := decode[ErrorResponse](t, body)
	if got.Redirect != session.LoginPath || got.Error != "Сессия истекла, войдите снова" {
		t.Errorf("response = %+v", got)
	}

	_, body = env.do(t, http.MethodGet, "/api/session", nil, nil)
	if decode[SessionResponse](t, body).Authenticated {
		t.Error("session still authenticated after backend 401")
	}
	if n := env.deps.Workspaces.Len(); n != 0 {
		t.Errorf("workspaces = %d, want 0", n)
	}
}

func TestUnreadableSessionSignsOut(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.login(t)

	if _, err := env.db.Exec(`UPDATE sessions SET token_sealed = 'garbage'`); err != nil {
		t.Fatalf("corrupt session: %v", err)
	}

	resp, body := env.do(t, http.MethodGet, "/api/session", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if got := decode[SessionResponse](t, body); got.Authenticated {
		t.Error("unreadable session still authenticated")
	}

	resp, _ = env.do(t, http.MethodGet, "/api/contest", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("contest status = %d, want 401", resp.StatusCode)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.login(t)

	resp, body := env.do(t, http.MethodPost, "/api/session/logout", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := decode[SessionResponse](t, body); got.Authenticated || got.Redirect != "/login" {
		t.Errorf("logout response = %+v", got)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/ratings", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("ratings after logout = %d, want 401", resp.StatusCode)
	}
}

func TestAdminForbiddenRedirectsHome(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.backend.HandleFunc("GET /admin", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"Admin access required"}`))
	})
	env.backend.HandleFunc("POST /admin/nvd_sync", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	env.login(t)

	resp, body := env.do(t, http.MethodGet, "/api/admin", nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	if got := decode[ErrorResponse](t, body).Redirect; got != session.LandingPath {
		t.Errorf("redirect = %q, want %q", got, session.LandingPath)
	}

	resp, body = env.do(t, http.MethodPost, "/api/admin/nvd-sync", nil, nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("nvd sync status = %d, want 502", resp.StatusCode)
	}
	if got := decode[ErrorResponse](t, body).Error; got != "Не удалось выполнить синхронизацию NVD" {
		t.Errorf("nvd sync error = %q", got)
	}
}

func TestRatingsKind(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	var kind atomic.Value
	env.backend.HandleFunc("GET /ratings/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		kind.Store(r.URL.Query().Get("kind"))
		w.Write([]byte(`{"kind":"contest","entries":[]}`))
	})
	env.login(t)

	resp, _ := env.do(t, http.MethodGet, "/api/ratings", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := kind.Load(); got != "contest" {
		t.Errorf("kind sent = %v, want contest", got)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/ratings?kind=weekly", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", resp.StatusCode)
	}
}

func TestValidationNeverReachesBackend(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	var calls atomic.Int32
	env.backend.HandleFunc("/feedback", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	env.backend.HandleFunc("/kb_entries/paged", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	env.backend.HandleFunc("/kb_entries/5/comments", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	env.login(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"unknown feedback topic", http.MethodPost, "/api/feedback", FeedbackRequest{Topic: "Погода", Message: "привет"}},
		{"blank feedback", http.MethodPost, "/api/feedback", FeedbackRequest{Topic: "Другое", Message: "   "}},
		{"bad order", http.MethodGet, "/api/knowledge/entries?order=sideways", nil},
		{"bad difficulty", http.MethodGet, "/api/education/tasks?difficulty=insane", nil},
		{"short username", http.MethodPut, "/api/profile/username", UsernameRequest{Username: "ab"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, tt.method, tt.path, tt.body, nil)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", resp.StatusCode, body)
			}
		})
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("backend calls = %d, want 0", n)
	}
}

func TestCSRF(t *testing.T) {
	env := newTestEnv(t, envOptions{csrfKey: bytes.Repeat([]byte("k"), 32)})

	resp, _ := env.do(t, http.MethodPost, "/api/session/login",
		LoginRequest{Email: "neo@hacknet.ru", Password: "secret"}, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("login without token = %d, want 403", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/session", nil, nil)
	token := resp.Header.Get("X-CSRF-Token")
	if token == "" {
		t.Fatal("GET /api/session returned no X-CSRF-Token")
	}

	resp, body := env.do(t, http.MethodPost, "/api/session/login",
		LoginRequest{Email: "neo@hacknet.ru", Password: "secret"},
		http.Header{"X-Csrf-Token": {token}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login with token = %d, body = %s", resp.StatusCode, body)
	}
}

func TestSPAGate(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<!doctype html><div id=app></div>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t, envOptions{spaDir: dir})

	check := func(t *testing.T, path string, wantStatus int, wantLocation string) {
		t.Helper()
		resp, _ := env.do(t, http.MethodGet, path, nil, nil)
		if resp.StatusCode != wantStatus {
			t.Errorf("GET %s status = %d, want %d", path, resp.StatusCode, wantStatus)
		}
		if got := resp.Header.Get("Location"); got != wantLocation {
			t.Errorf("GET %s location = %q, want %q", path, got, wantLocation)
		}
	}

	check(t, "/", http.StatusFound, "/login")
	check(t, "/championship", http.StatusFound, "/login")
	check(t, "/knowledge/12", http.StatusFound, "/login")
	check(t, "/login", http.StatusOK, "")
	check(t, "/app.js", http.StatusOK, "")

	env.login(t)
	check(t, "/", http.StatusFound, "/home")
	check(t, "/register", http.StatusFound, "/home")
	check(t, "/championship", http.StatusOK, "")
}

func profileBackend(env *testEnv) {
	env.backend.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":7,"email":"neo@hacknet.ru","username":"neo","role":"user"}`))
	})
	env.backend.HandleFunc("PUT /profile", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Username string }
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{"id": 7, "email": "neo@hacknet.ru", "username": body.Username, "role": "user"})
	})
}

func TestProfileEvents(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	profileBackend(env)
	env.login(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, env.portal.URL+"/api/profile/events", nil)
	resp, err := env.client.Do(req)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content-type = %q", got)
	}

	r, body := env.do(t, http.MethodPut, "/api/profile/username", UsernameRequest{Username: "trinity"}, nil)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("rename status = %d, body = %s", r.StatusCode, body)
	}

	sc := bufio.NewScanner(resp.Body)
	var event string
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "event: ") {
			event = strings.TrimPrefix(line, "event: ")
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			u := decode[profile.Update](t, []byte(data))
			if event != "profile" || u.UserID != 7 || u.Username != "trinity" {
				t.Errorf("event %q update = %+v", event, u)
			}
			return
		}
	}
	t.Fatalf("stream ended without an update: %v", sc.Err())
}

func TestProfileSocket(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	profileBackend(env)
	env.login(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(env.portal.URL, "http") + "/ws/profile"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPClient: env.client})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	r, body := env.do(t, http.MethodPut, "/api/profile/username", UsernameRequest{Username: "morpheus"}, nil)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("rename status = %d, body = %s", r.StatusCode, body)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if u := decode[profile.Update](t, data); u.UserID != 7 || u.Username != "morpheus" {
		t.Errorf("update = %+v", u)
	}

	conn.Close(websocket.StatusNormalClosure, "done")
}

func TestProfileSocketRequiresSession(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(env.portal.URL, "http") + "/ws/profile"
	_, resp, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPClient: env.client})
	if err == nil {
		t.Fatal("dial succeeded without a session")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("response = %v, want 401", resp)
	}
}
