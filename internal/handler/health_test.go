package handler

import (
	"net/http"
	"testing"
)

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/health", nil)
	wantStatus(t, resp, http.StatusOK)

	var body struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Uptime   string `json:"uptime"`
	}
	decodeBody(t, resp, &body)

	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.Database != "ok" {
		t.Errorf("database = %q, want ok", body.Database)
	}
	if body.Uptime == "" {
		t.Error("uptime missing")
	}
}

func TestHealthDegraded(t *testing.T) {
	ts := newTestServer(t)

	// A closed database must surface as degraded, not as a crash.
	if err := ts.db.Close(); err != nil {
		t.Fatalf("closing db: %v", err)
	}

	resp := ts.do(t, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	var body struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	decodeBody(t, resp, &body)
	if body.Status != "degraded" || body.Database != "unreachable" {
		t.Errorf("body = %+v", body)
	}
}
