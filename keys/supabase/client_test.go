package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Config{URL: srv.URL, AnonKey: "anon-key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, srv
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{AnonKey: "k"}); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := New(Config{URL: "https://example.supabase.co"}); err == nil {
		t.Fatal("expected error for missing anon key")
	}
	c, err := New(Config{URL: "https://example.supabase.co/", AnonKey: "k"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.table != "one_time_keys" {
		t.Fatalf("default table = %q, expected one_time_keys", c.table)
	}
	if got := c.tableURL(); got != "https://example.supabase.co/rest/v1/one_time_keys" {
		t.Fatalf("tableURL = %q", got)
	}
}

func TestInsert(t *testing.T) {
	var gotReq *http.Request
	var gotBody map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	if err := client.Insert(context.Background(), "some-key", "12345"); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if gotReq.Method != http.MethodPost {
		t.Errorf("method = %s, expected POST", gotReq.Method)
	}
	if gotReq.URL.Path != "/rest/v1/one_time_keys" {
		t.Errorf("path = %s", gotReq.URL.Path)
	}
	if got := gotReq.Header.Get("apikey"); got != "anon-key" {
		t.Errorf("apikey header = %q", got)
	}
	if got := gotReq.Header.Get("Authorization"); got != "Bearer anon-key" {
		t.Errorf("Authorization header = %q", got)
	}
	if got := gotReq.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type header = %q", got)
	}
	if got := gotReq.Header.Get("Prefer"); got != "return=minimal" {
		t.Errorf("Prefer header = %q", got)
	}
	want := map[string]any{"key": "some-key", "used": false, "user_id": "12345"}
	for k, v := range want {
		if gotBody[k] != v {
			t.Errorf("body[%s] = %v, expected %v", k, gotBody[k], v)
		}
	}
}

func TestInsertErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	if err := client.Insert(context.Background(), "k", "1"); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestHasActiveKey(t *testing.T) {
	tests := []struct {
		name string
		rows string
		want bool
	}{
		{"empty result", `[]`, false},
		{"one active key", `[{"key":"abc","used":false,"user_id":"12345"}]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotReq *http.Request
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotReq = r
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.rows))
			})

			got, err := client.HasActiveKey(context.Background(), "12345")
			if err != nil {
				t.Fatalf("HasActiveKey: %v", err)
			}
			if got != tt.want {
				t.Fatalf("HasActiveKey = %v, expected %v", got, tt.want)
			}

			q := gotReq.URL.Query()
			if got := q.Get("user_id"); got != "eq.12345" {
				t.Errorf("user_id filter = %q", got)
			}
			if got := q.Get("used"); got != "eq.false" {
				t.Errorf("used filter = %q", got)
			}
			if got := gotReq.Header.Get("apikey"); got != "anon-key" {
				t.Errorf("apikey header = %q", got)
			}
		})
	}
}

func TestHasActiveKeyErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if _, err := client.HasActiveKey(context.Background(), "1"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestCount(t *testing.T) {
	var gotReq *http.Request
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		w.Header().Set("Content-Range", "0-0/42")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte(`[{"key":"abc"}]`))
	})

	got, err := client.Count(context.Background(), true)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if got != 42 {
		t.Fatalf("Count = %d, expected 42", got)
	}
	if got := gotReq.Header.Get("Prefer"); got != "count=exact" {
		t.Errorf("Prefer header = %q", got)
	}
	if got := gotReq.URL.Query().Get("used"); got != "eq.false" {
		t.Errorf("used filter = %q", got)
	}
}

func TestParseContentRange(t *testing.T) {
	tests := []struct {
		header  string
		want    int
		wantErr bool
	}{
		{"0-0/42", 42, false},
		{"*/0", 0, false},
		{"0-24/3573", 3573, false},
		{"*/*", 0, true},
		{"", 0, true},
		{"0-0/abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseContentRange(tt.header)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseContentRange(%q): expected error", tt.header)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseContentRange(%q): %v", tt.header, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseContentRange(%q) = %d, expected %d", tt.header, got, tt.want)
		}
	}
}
