package tasks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/CrowderSoup/taskflow-pro/model"
	"github.com/CrowderSoup/taskflow-pro/tasks"
)

func subtaskTitles(sts []model.Subtask) []string {
	out := make([]string, len(sts))
	for i, st := range sts {
		out[i] = st.Title
	}
	return out
}

func TestSubtaskStoreAppendsAndScopesToParent(t *testing.T) {
	fb := &fakeBackend{}
	ctx := context.Background()

	other := tasks.NewSubtaskStore(fb, "task-other")
	if _, err := other.Add(ctx, model.SubtaskDraft{Title: "elsewhere"}); err != nil {
		t.Fatal(err)
	}

	s := tasks.NewSubtaskStore(fb, "task-1")
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	for _, title := range []string{"one", "two"} {
		st, err := s.Add(ctx, model.SubtaskDraft{Title: title})
		if err != nil {
			t.Fatal(err)
		}
		if st.ParentTaskID != "task-1" {
			t.Errorf("parent = %q", st.ParentTaskID)
		}
		if st.Status != model.StatusPending {
			t.Errorf("status = %q", st.Status)
		}
	}

	if diff := cmp.Diff([]string{"one", "two"}, subtaskTitles(s.List())); diff != "" {
		t.Errorf("local list (-want +got):\n%s", diff)
	}

	reloaded := tasks.NewSubtaskStore(fb, "task-1")
	reloaded.Load(ctx)
	if diff := cmp.Diff([]string{"one", "two"}, subtaskTitles(reloaded.List())); diff != "" {
		t.Errorf("reloaded list (-want +got):\n%s", diff)
	}
}

func TestSubtaskStoreToggleAndDelete(t *testing.T) {
	fb := &fakeBackend{}
	ctx := context.Background()
	s := tasks.NewSubtaskStore(fb, "task-1")
	st, _ := s.Add(ctx, model.SubtaskDraft{Title: "one"})

	toggled, err := s.Toggle(ctx, st.ID)
	if err != nil || toggled.Status != model.StatusDone {
		t.Fatalf("Toggle = %+v, %v", toggled, err)
	}
	if _, err := s.Toggle(ctx, "nope"); !errors.Is(err, tasks.ErrSubtaskNotFound) {
		t.Errorf("expected ErrSubtaskNotFound, got %v", err)
	}

	if err := s.Delete(ctx, st.ID); err != nil {
		t.Fatal(err)
	}
	if len(s.List()) != 0 {
		t.Error("subtask still listed")
	}
}

func TestSubtaskStoreAddFailure(t *testing.T) {
	fb := &fakeBackend{InsertErr: errBackend}
	s := tasks.NewSubtaskStore(fb, "task-1")

	if _, err := s.Add(context.Background(), model.SubtaskDraft{Title: "x"}); !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if len(s.List()) != 0 {
		t.Error("list changed after failed add")
	}
}

func TestSuggestionsAcceptRemovesOnlyOnSuccess(t *testing.T) {
	fb := &fakeBackend{}
	ctx := context.Background()
	store := tasks.NewSubtaskStore(fb, "task-1")
	sug := tasks.NewSuggestions([]string{"Book venue", "Send invites", "Order cake"})

	if _, err := sug.Accept(ctx, store, "Send invites"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Book venue", "Order cake"}, sug.Items()); diff != "" {
		t.Errorf("suggestions (-want +got):\n%s", diff)
	}

	fb.InsertErr = errBackend
	if _, err := sug.Accept(ctx, store, "Order cake"); err == nil {
		t.Fatal("expected error")
	}
	if sug.Len() != 2 {
		t.Errorf("failed accept removed a suggestion: %v", sug.Items())
	}
	if diff := cmp.Diff([]string{"Send invites"}, subtaskTitles(store.List())); diff != "" {
		t.Errorf("saved subtasks (-want +got):\n%s", diff)
	}
}
