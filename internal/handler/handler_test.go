package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"tineghir-cms/internal/auth"
	"tineghir-cms/internal/cache"
	"tineghir-cms/internal/middleware"
	"tineghir-cms/internal/model"
	"tineghir-cms/internal/session"
	"tineghir-cms/internal/store"
	"tineghir-cms/internal/testutil"
)

// testServer wires the full API surface against a temp database, with a
// cookie-jar client so session flows behave like a browser.
type testServer struct {
	*httptest.Server
	db     *sql.DB
	client *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithUploads(t, t.TempDir())
}

func newTestServerWithUploads(t *testing.T, uploadsDir string) *testServer {
	t.Helper()

	// Handlers log through the default logger; keep test output to warnings.
	slog.SetDefault(testutil.TestLogger())

	db := testutil.TestDB(t)
	sm := session.New(db, true)

	contentCache := cache.NewContentCache(cache.NewMemoryCache(time.Minute, 0), time.Minute)
	t.Cleanup(func() { _ = contentCache.Close() })

	authHandler := NewAuthHandler(db, sm)
	contentHandler := NewContentHandler(db, contentCache)
	attractionsHandler := NewAttractionsHandler(db)
	usersHandler := NewUsersHandler(db)
	messagesHandler := NewMessagesHandler(db)
	uploadHandler := NewUploadHandler(uploadsDir)
	healthHandler := NewHealthHandler(db)

	r := chi.NewRouter()
	r.Get("/health", healthHandler.Health)
	r.Route("/api", func(r chi.Router) {
		r.Use(sm.LoadAndSave)

		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/content", contentHandler.Get)
		r.Get("/attractions", attractionsHandler.List)
		r.Post("/messages", messagesHandler.Create)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sm))
			r.Use(middleware.LoadUser(sm, db))

			r.Get("/me", authHandler.Me)
			r.Post("/content", contentHandler.Update)
			r.Post("/attractions", attractionsHandler.Create)
			r.Delete("/attractions/{id}", attractionsHandler.Delete)
			r.Get("/users", usersHandler.List)
			r.Post("/users", usersHandler.Create)
			r.Delete("/users/{id}", usersHandler.Delete)
			r.Get("/messages", messagesHandler.List)
			r.Post("/upload", uploadHandler.Upload)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("creating cookie jar: %v", err)
	}

	return &testServer{
		Server: srv,
		db:     db,
		client: &http.Client{Jar: jar},
	}
}

// newClientFor returns a view of the same server with a fresh cookie jar,
// simulating a second independent browser.
func newClientFor(t *testing.T, ts *testServer) *testServer {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("creating cookie jar: %v", err)
	}
	return &testServer{
		Server: ts.Server,
		db:     ts.db,
		client: &http.Client{Jar: jar},
	}
}

// do issues a JSON request against the test server and returns the response.
func (ts *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// decodeBody decodes a JSON response body into dst and closes it.
func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

// errorCode extracts the error code from a JSON error response.
func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body ErrorResponse
	decodeBody(t, resp, &body)
	return body.Error.Code
}

// createUser inserts an account directly into the store.
func createUser(t *testing.T, db *sql.DB, email, password, role, status string) int64 {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	id, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       status,
	})
	if err != nil {
		t.Fatalf("creating user %s: %v", email, err)
	}
	return id
}

// login authenticates the test client and fails the test on rejection.
func (ts *testServer) login(t *testing.T, email, password string) {
	t.Helper()

	resp := ts.do(t, http.MethodPost, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	})
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login as %s: status %d", email, resp.StatusCode)
	}
}

// loginAdmin creates and logs in an administrator account.
func (ts *testServer) loginAdmin(t *testing.T) int64 {
	t.Helper()
	id := createUser(t, ts.db, "admin@example.com", "admin-pass", model.RoleAdministrator, model.StatusActive)
	ts.login(t, "admin@example.com", "admin-pass")
	return id
}

func wantStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		data, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		t.Fatalf("status = %d, want %d (body: %s)", resp.StatusCode, want, data)
	}
}
