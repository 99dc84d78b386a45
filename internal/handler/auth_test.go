package handler

import (
	"context"
	"net/http"
	"testing"

	"tineghir-cms/internal/model"
	"tineghir-cms/internal/store"
)

func TestLoginSuccess(t *testing.T) {
	ts := newTestServer(t)
	createUser(t, ts.db, "editor@example.com", "secret-pass", model.RoleEditor, model.StatusActive)

	resp := ts.do(t, http.MethodPost, "/api/login", map[string]string{
		"email":    "editor@example.com",
		"password": "secret-pass",
	})
	wantStatus(t, resp, http.StatusOK)

	var body struct {
		User model.UserView `json:"user"`
	}
	decodeBody(t, resp, &body)

	if body.User.Email != "editor@example.com" {
		t.Errorf("user email = %q", body.User.Email)
	}
	if body.User.Role != model.RoleEditor {
		t.Errorf("user role = %q", body.User.Role)
	}
	if body.User.LastActive == "Never" {
		t.Error("last_active = Never immediately after login")
	}

	// The session cookie must now authenticate protected reads.
	me := ts.do(t, http.MethodGet, "/api/me", nil)
	wantStatus(t, me, http.StatusOK)
	decodeBody(t, me, &body)
	if body.User.Email != "editor@example.com" {
		t.Errorf("me email = %q", body.User.Email)
	}
}

func TestLoginUniformFailure(t *testing.T) {
	ts := newTestServer(t)
	createUser(t, ts.db, "known@example.com", "right-pass", model.RoleEditor, model.StatusActive)

	// Unknown email and wrong password must be indistinguishable.
	cases := []struct {
		name  string
		email string
		pass  string
	}{
		{"unknown email", "nobody@example.com", "whatever"},
		{"wrong password", "known@example.com", "wrong-pass"},
	}

	var bodies []string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/login", map[string]string{
				"email":    tc.email,
				"password": tc.pass,
			})
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}
			var body ErrorResponse
			decodeBody(t, resp, &body)
			if body.Error.Code != "invalid_credentials" {
				t.Errorf("error code = %q, want invalid_credentials", body.Error.Code)
			}
			bodies = append(bodies, body.Error.Message)
		})
	}

	if len(bodies) == 2 && bodies[0] != bodies[1] {
		t.Errorf("failure messages differ: %q vs %q", bodies[0], bodies[1])
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	ts := newTestServer(t)
	createUser(t, ts.db, "gone@example.com", "secret-pass", model.RoleEditor, model.StatusInactive)

	resp := ts.do(t, http.MethodPost, "/api/login", map[string]string{
		"email":    "gone@example.com",
		"password": "secret-pass",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "invalid_credentials" {
		t.Errorf("error code = %q, want invalid_credentials (no inactive hint)", code)
	}
}

func TestLoginValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/login", map[string]string{"email": "a@b.c"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing password status = %d, want 400", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/login", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty body status = %d, want 400", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestLoginUpdatesLastActive(t *testing.T) {
	ts := newTestServer(t)
	id := createUser(t, ts.db, "editor@example.com", "secret-pass", model.RoleEditor, model.StatusActive)

	ts.login(t, "editor@example.com", "secret-pass")

	user, err := store.New(ts.db).GetUserByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if !user.LastActive.Valid {
		t.Error("last_active not persisted after login")
	}
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	ts.loginAdmin(t)

	resp := ts.do(t, http.MethodPost, "/api/logout", nil)
	wantStatus(t, resp, http.StatusOK)
	_ = resp.Body.Close()

	// The session is gone: protected routes reject the old cookie.
	me := ts.do(t, http.MethodGet, "/api/me", nil)
	if me.StatusCode != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want 401", me.StatusCode)
	}
	_ = me.Body.Close()

	// Logging out again without a session still succeeds.
	again := ts.do(t, http.MethodPost, "/api/logout", nil)
	wantStatus(t, again, http.StatusOK)
	_ = again.Body.Close()
}

func TestMeRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/me", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "unauthenticated" {
		t.Errorf("error code = %q, want unauthenticated", code)
	}
}

func TestUserViewHidesPasswordHash(t *testing.T) {
	ts := newTestServer(t)
	createUser(t, ts.db, "editor@example.com", "secret-pass", model.RoleEditor, model.StatusActive)

	resp := ts.do(t, http.MethodPost, "/api/login", map[string]string{
		"email":    "editor@example.com",
		"password": "secret-pass",
	})
	wantStatus(t, resp, http.StatusOK)

	var raw map[string]map[string]any
	decodeBody(t, resp, &raw)
	user := raw["user"]
	for _, forbidden := range []string{"password", "password_hash", "PasswordHash"} {
		if _, ok := user[forbidden]; ok {
			t.Errorf("login response exposes %q", forbidden)
		}
	}
}
