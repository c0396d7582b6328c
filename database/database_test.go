package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/CrowderSoup/taskflow-pro/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustUser(t *testing.T, db *sql.DB, email string) User {
	t.Helper()
	u, err := NewUserService(db).EnsureUser(context.Background(), email)
	if err != nil {
		t.Fatalf("EnsureUser(%s): %v", email, err)
	}
	return u
}

// tickingClock returns strictly increasing times one second apart.
func tickingClock() func() time.Time {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newTaskService(db *sql.DB) *TaskService {
	s := NewTaskService(db)
	s.now = tickingClock()
	return s
}

func ptr[T any](v T) *T { return &v }

func TestEnsureUserIsStable(t *testing.T) {
	db := openTestDB(t)
	a := mustUser(t, db, "Ada@Example.com")
	b := mustUser(t, db, "ada@example.com ")
	if a.ID != b.ID {
		t.Errorf("EnsureUser ids differ: %s vs %s", a.ID, b.ID)
	}

	got, err := NewUserService(db).Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Email != "ada@example.com" {
		t.Errorf("Email = %q", got.Email)
	}
}

func TestTaskServiceCRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "ada@example.com")
	s := newTaskService(db)

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		task, err := s.Create(ctx, u.ID, model.TaskDraft{Title: "  " + title, Priority: model.PriorityLow})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if task.Status != model.StatusPending {
			t.Errorf("Status = %q, want pending", task.Status)
		}
		if task.StartDate != "2024-03-01" {
			t.Errorf("StartDate = %q", task.StartDate)
		}
		ids = append(ids, task.ID)
	}

	list, err := s.List(ctx, u.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var gotIDs []string
	for _, task := range list {
		gotIDs = append(gotIDs, task.ID)
	}
	if diff := cmp.Diff([]string{ids[2], ids[1], ids[0]}, gotIDs); diff != "" {
		t.Errorf("List order mismatch (-want +got):\n%s", diff)
	}
	if list[2].Title != "first" {
		t.Errorf("title not trimmed: %q", list[2].Title)
	}

	updated, err := s.Update(ctx, u.ID, ids[0], model.TaskPatch{Status: ptr(model.StatusDone), Notes: ptr("n")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != model.StatusDone || updated.Notes != "n" || updated.Title != "first" {
		t.Errorf("Update = %+v", updated)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Errorf("UpdatedAt not advanced")
	}
	stored, err := s.Get(ctx, u.ID, ids[0])
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(updated, stored); diff != "" {
		t.Errorf("stored record differs from returned (-returned +stored):\n%s", diff)
	}

	if err := s.Delete(ctx, u.ID, ids[0]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, u.ID, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestOwnerScoping(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a@example.com")
	b := mustUser(t, db, "b@example.com")
	tasks := newTaskService(db)
	subtasks := NewSubtaskService(db)

	task, err := tasks.Create(ctx, a.ID, model.TaskDraft{Title: "secret", Priority: model.PriorityHigh})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	sub, err := subtasks.Create(ctx, a.ID, task.ID, model.SubtaskDraft{Title: "step"})
	if err != nil {
		t.Fatalf("Create subtask: %v", err)
	}

	if list, _ := tasks.List(ctx, b.ID); len(list) != 0 {
		t.Errorf("b sees %d tasks", len(list))
	}
	if _, err := tasks.Get(ctx, b.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get = %v, want ErrNotFound", err)
	}
	if _, err := tasks.Update(ctx, b.ID, task.ID, model.TaskPatch{Title: ptr("mine")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update = %v, want ErrNotFound", err)
	}
	if err := tasks.Delete(ctx, b.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete = %v, want ErrNotFound", err)
	}
	if _, err := subtasks.List(ctx, b.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("subtask List = %v, want ErrNotFound", err)
	}
	if _, err := subtasks.Create(ctx, b.ID, task.ID, model.SubtaskDraft{Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("subtask Create = %v, want ErrNotFound", err)
	}
	if _, err := subtasks.Update(ctx, b.ID, sub.ID, model.SubtaskPatch{Status: ptr(model.StatusDone)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("subtask Update = %v, want ErrNotFound", err)
	}
	if err := subtasks.Delete(ctx, b.ID, sub.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("subtask Delete = %v, want ErrNotFound", err)
	}
}

func TestSubtasksOrderAndCascade(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")
	tasks := newTaskService(db)
	subtasks := NewSubtaskService(db)
	subtasks.now = tickingClock()

	task, err := tasks.Create(ctx, u.ID, model.TaskDraft{Title: "trip", Priority: model.PriorityMedium})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, title := range []string{"book", "pack", "go"} {
		if _, err := subtasks.Create(ctx, u.ID, task.ID, model.SubtaskDraft{Title: title}); err != nil {
			t.Fatalf("Create subtask: %v", err)
		}
	}

	list, err := subtasks.List(ctx, u.ID, task.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var titles []string
	for _, st := range list {
		titles = append(titles, st.Title)
	}
	if diff := cmp.Diff([]string{"book", "pack", "go"}, titles); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	toggled, err := subtasks.Update(ctx, u.ID, list[0].ID, model.SubtaskPatch{Status: ptr(list[0].Status.Toggled())})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if toggled.Status != model.StatusDone {
		t.Errorf("Status = %q, want done", toggled.Status)
	}

	if err := tasks.Delete(ctx, u.ID, task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM subtasks").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("%d subtasks survived their parent", n)
	}
}

func TestPreferenceService(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")
	s := NewPreferenceService(db)

	if _, err := s.Get(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get = %v, want ErrNotFound", err)
	}

	created, err := s.Create(ctx, u.ID, model.DefaultPreferences())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Theme != model.ThemeLight || !created.CommandMenuEnabled || created.FeaturePreviews {
		t.Errorf("Create = %+v", created)
	}

	again, err := s.Create(ctx, u.ID, model.Preferences{Theme: model.ThemeClassicDark})
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if again.Theme != model.ThemeLight {
		t.Errorf("second Create overwrote the record: %+v", again)
	}

	saved, err := s.Save(ctx, u.ID, model.Preferences{Theme: model.ThemeClassicDark, FeaturePreviews: true})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Theme != model.ThemeClassicDark || !saved.FeaturePreviews || saved.CommandMenuEnabled {
		t.Errorf("Save = %+v", saved)
	}
}

func TestLegacyThemeIsNormalized(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")

	_, err := db.Exec(`INSERT INTO user_preferences (`+preferenceColumns+`) VALUES (?, 'dark', 0, 1, ?, ?)`,
		u.ID, formatTime(time.Now()), formatTime(time.Now()))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	p, err := NewPreferenceService(db).Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Theme != model.ThemeClassicDark {
		t.Errorf("Theme = %q, want classic-dark", p.Theme)
	}
}

func TestVectorStoreMatch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a@example.com")
	b := mustUser(t, db, "b@example.com")
	tasks := newTaskService(db)
	vs := NewVectorStore(db)

	embed := func(userID, title string, vec []float32) string {
		t.Helper()
		task, err := tasks.Create(ctx, userID, model.TaskDraft{Title: title, Priority: model.PriorityLow})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := vs.Upsert(ctx, userID, task.ID, vec); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		return task.ID
	}

	// Cosine similarity to the query {1,0} is the first coordinate after normalizing.
	exact := embed(a.ID, "exact", []float32{2, 0})
	close1 := embed(a.ID, "close", []float32{0.9, 0.1})
	mid := embed(a.ID, "mid", []float32{0.6, 0.8})
	embed(a.ID, "far", []float32{0.2, 0.98})
	embed(a.ID, "opposite", []float32{-1, 0})
	embed(a.ID, "wrong dims", []float32{1, 0, 0})
	embed(b.ID, "other user", []float32{1, 0})

	got, err := vs.Match(ctx, a.ID, []float32{1, 0}, 0.3, 5)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
		if r.Similarity < 0 || r.Similarity > 1 {
			t.Errorf("similarity %v out of range", r.Similarity)
		}
	}
	if diff := cmp.Diff([]string{exact, close1, mid}, ids); diff != "" {
		t.Errorf("Match mismatch (-want +got):\n%s", diff)
	}

	capped, err := vs.Match(ctx, a.ID, []float32{1, 0}, 0.3, 2)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(capped) != 2 || capped[0].ID != exact || capped[1].ID != close1 {
		t.Errorf("capped Match = %v", capped)
	}
}

func TestTasksMissingEmbeddings(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")
	clock := tickingClock()
	tasks := NewTaskService(db)
	tasks.now = clock
	vs := NewVectorStore(db)
	vs.now = clock

	indexed, _ := tasks.Create(ctx, u.ID, model.TaskDraft{Title: "indexed", Priority: model.PriorityLow})
	missing, _ := tasks.Create(ctx, u.ID, model.TaskDraft{Title: "missing", Priority: model.PriorityLow})
	stale, _ := tasks.Create(ctx, u.ID, model.TaskDraft{Title: "stale", Priority: model.PriorityLow})
	for _, id := range []string{indexed.ID, stale.ID} {
		if err := vs.Upsert(ctx, u.ID, id, []float32{1, 0}); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	if _, err := tasks.Update(ctx, u.ID, stale.ID, model.TaskPatch{Title: ptr("stale, edited")}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := vs.TasksMissingEmbeddings(ctx, 10)
	if err != nil {
		t.Fatalf("TasksMissingEmbeddings: %v", err)
	}
	var ids []string
	for _, task := range got {
		ids = append(ids, task.ID)
	}
	if diff := cmp.Diff([]string{missing.ID, stale.ID}, ids); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestEditsOutsideTextKeepEmbedding(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")
	clock := tickingClock()
	tasks := NewTaskService(db)
	tasks.now = clock
	vs := NewVectorStore(db)
	vs.now = clock

	task, err := tasks.Create(ctx, u.ID, model.TaskDraft{Title: "File taxes", Priority: model.PriorityLow})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := vs.Upsert(ctx, u.ID, task.ID, []float32{1, 0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	edits := []struct {
		name  string
		patch model.TaskPatch
	}{
		{"status", model.TaskPatch{Status: ptr(model.StatusDone)}},
		{"priority", model.TaskPatch{Priority: ptr(model.PriorityHigh)}},
		{"start date", model.TaskPatch{StartDate: ptr("2024-04-01")}},
		{"same title", model.TaskPatch{Title: ptr("File taxes")}},
	}
	for _, edit := range edits {
		if _, err := tasks.Update(ctx, u.ID, task.ID, edit.patch); err != nil {
			t.Fatalf("Update(%s): %v", edit.name, err)
		}
		got, err := vs.TasksMissingEmbeddings(ctx, 10)
		if err != nil {
			t.Fatalf("TasksMissingEmbeddings: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("after %s edit: %d task(s) queued for re-embedding", edit.name, len(got))
		}
	}

	if _, err := tasks.Update(ctx, u.ID, task.ID, model.TaskPatch{Notes: ptr("receipts in the drawer")}); err != nil {
		t.Fatalf("Update notes: %v", err)
	}
	got, err := vs.TasksMissingEmbeddings(ctx, 10)
	if err != nil {
		t.Fatalf("TasksMissingEmbeddings: %v", err)
	}
	if len(got) != 1 || got[0].ID != task.ID {
		t.Errorf("after notes edit = %+v, want the task", got)
	}
}
