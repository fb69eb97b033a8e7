package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMeSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/me" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Fatalf("unexpected auth header %q", got)
		}
		_ = json.NewEncoder(w).Encode(User{ID: "u1", Username: "alice", Avatar: "/uploads/a.png"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("tok-123")

	u, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if u.ID != "u1" || u.Username != "alice" || u.Avatar != "/uploads/a.png" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestErrorResponseSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "invalid token"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Me(context.Background()); err == nil {
		t.Fatalf("expected error for 401 response")
	}
}

func TestUpdateProfileSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PUT" || r.URL.Path != "/auth/profile" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.Username != "alicia" {
			t.Fatalf("unexpected body: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(User{ID: "u1", Username: "alicia"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("tok")
	u, err := c.UpdateProfile(context.Background(), UpdateProfileRequest{Username: "alicia"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.Username != "alicia" {
		t.Fatalf("unexpected user: %+v", u)
	}
}
