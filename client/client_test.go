package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/CrowderSoup/taskflow-pro/model"
	"github.com/CrowderSoup/taskflow-pro/prefs"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(Config{URL: srv.URL + "/", AnonKey: "anon"}, "jwt"), &calls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestNotConfigured(t *testing.T) {
	c := New(Config{URL: "http://localhost"}, "jwt")
	ctx := context.Background()

	if _, err := c.ListTasks(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("ListTasks err = %v, want ErrNotConfigured", err)
	}
	if err := c.DeleteSubtask(ctx, "x"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("DeleteSubtask err = %v, want ErrNotConfigured", err)
	}
	if _, err := NewGenerator(c).Generate(ctx, "Plan trip"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Generate err = %v, want ErrNotConfigured", err)
	}
	if _, err := c.ExchangeMagicLink(ctx, "http://localhost/verify"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("ExchangeMagicLink err = %v, want ErrNotConfigured", err)
	}
}

func TestRequestHeaders(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("apikey"); got != "anon" {
			t.Errorf("apikey = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer jwt" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/api/tasks" {
			t.Errorf("path = %q", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, []model.Task{{ID: "1", Title: "a"}})
	})

	got, err := c.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("ListTasks = %+v", got)
	}
}

func TestAPIErrorMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
	})

	_, err := c.InsertTask(context.Background(), model.TaskDraft{})
	if err == nil || err.Error() != "title is required" {
		t.Fatalf("err = %v", err)
	}
	if StatusCode(err) != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", StatusCode(err))
	}
}

func TestGetPreferencesNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "preferences not found"})
	})

	_, err := c.GetPreferences(context.Background())
	if !errors.Is(err, prefs.ErrNotFound) {
		t.Errorf("err = %v, want prefs.ErrNotFound", err)
	}
}

func TestSearchBlankQuery(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})
	s := NewSearcher(c, "user-1")

	got, err := s.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Search = %v, want empty non-nil", got)
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0", calls.Load())
	}
}

func TestSearch(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if diff := cmp.Diff(searchRequest{Query: "groceries", UserID: "user-1"}, req); diff != "" {
			t.Errorf("request mismatch (-want +got):\n%s", diff)
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": []model.SearchResult{
			{Task: model.Task{ID: "b"}, Similarity: 0.9},
			{Task: model.Task{ID: "a"}, Similarity: 0.4},
		}})
	})
	s := NewSearcher(c, "user-1")

	got, err := s.Search(context.Background(), "  groceries ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"b", "a"}, ids); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if len(s.Results()) != 2 {
		t.Errorf("Results = %d, want 2", len(s.Results()))
	}

	s.Clear()
	if len(s.Results()) != 0 || s.Err() != "" {
		t.Errorf("Clear left results=%v err=%q", s.Results(), s.Err())
	}
}

func TestSearchFailureClearsResults(t *testing.T) {
	var fail atomic.Bool
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Search failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": []model.SearchResult{{Task: model.Task{ID: "a"}, Similarity: 0.5}}})
	})
	s := NewSearcher(c, "user-1")

	if _, err := s.Search(context.Background(), "first"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	fail.Store(true)
	if _, err := s.Search(context.Background(), "second"); err == nil {
		t.Fatal("expected error")
	}
	if len(s.Results()) != 0 {
		t.Errorf("results not cleared: %v", s.Results())
	}
	if s.Err() != "Search failed" {
		t.Errorf("Err = %q", s.Err())
	}
}

func TestGenerateBlankTitle(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	got, err := NewGenerator(c).Generate(context.Background(), " ")
	if !errors.Is(err, ErrTaskTitleRequired) {
		t.Errorf("err = %v, want ErrTaskTitleRequired", err)
	}
	if got != nil {
		t.Errorf("got = %v, want nil", got)
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0", calls.Load())
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    []string
		wantErr string
	}{
		{"ok", http.StatusOK, `{"subtasks":["Book flights","Pack"]}`, []string{"Book flights", "Pack"}, ""},
		{"empty", http.StatusOK, `{"subtasks":[]}`, []string{}, ""},
		{"backend message", http.StatusInternalServerError, `{"error":"model overloaded"}`, nil, "model overloaded"},
		{"no message", http.StatusBadGateway, `upstream down`, nil, generateFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			got, err := NewGenerator(c).Generate(context.Background(), "Plan trip")
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				if got != nil {
					t.Errorf("got = %v, want nil", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if got == nil {
				t.Fatal("got nil slice on success")
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExchangeMagicLink(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/magic-link" {
			t.Errorf("path = %q", r.URL.Path)
		}
		http.Redirect(w, r, "/?token=abc&email=a%40b.c", http.StatusFound)
	})
	token, err := c.ExchangeMagicLink(context.Background(), c.cfg.URL+"/api/auth/magic-link?token=magic")
	if err != nil {
		t.Fatalf("ExchangeMagicLink: %v", err)
	}
	if token != "abc" {
		t.Errorf("token = %q, want abc", token)
	}
}
