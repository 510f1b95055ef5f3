package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestSnapshotSaveAndLatest(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	// No snapshot yet.
	snap, err := repo.Latest(ctx, "state")
	if err != nil {
		t.Fatalf("latest (empty): %v", err)
	}
	if snap != nil {
		t.Fatal("expected nil snapshot when none exist")
	}

	if err := repo.Save(ctx, &Snapshot{Key: "state", Data: json.RawMessage(`{"step":"dashboard"}`)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, &Snapshot{Key: "other", Data: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("save other key: %v", err)
	}

	snap, err = repo.Latest(ctx, "state")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if snap == nil {
		t.Fatal("expected snapshot")
	}
	if string(snap.Data) != `{"step":"dashboard"}` {
		t.Errorf("data = %s", snap.Data)
	}
	if snap.Sequence == 0 {
		t.Error("expected sequence to be assigned")
	}
	if snap.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestSnapshotLatestOrdering(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	for _, step := range []string{"auth", "dashboard", "curriculum"} {
		data, _ := json.Marshal(map[string]string{"step": step})
		if err := repo.Save(ctx, &Snapshot{Key: "state", Data: data}); err != nil {
			t.Fatalf("save %s: %v", step, err)
		}
	}

	snap, err := repo.Latest(ctx, "state")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if string(snap.Data) != `{"step":"curriculum"}` {
		t.Errorf("latest data = %s, want curriculum", snap.Data)
	}
}

func TestSnapshotPrune(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Save(ctx, &Snapshot{Key: "state", Data: json.RawMessage(`{}`)}); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	if err := repo.Save(ctx, &Snapshot{Key: "keep-me", Data: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("save other: %v", err)
	}

	if err := repo.Prune(ctx, "state", 2); err != nil {
		t.Fatalf("prune: %v", err)
	}

	var count int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM snapshots WHERE key = 'state'`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("remaining = %d, want 2", count)
	}
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM snapshots WHERE key = 'keep-me'`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("other key remaining = %d, want 1", count)
	}

	// Pruning with fewer than keep is a no-op.
	if err := repo.Prune(ctx, "state", 10); err != nil {
		t.Fatalf("prune no-op: %v", err)
	}
}

func TestSequenceMonotonic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 10; i++ {
		n, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if n <= last {
			t.Fatalf("sequence not increasing: %d after %d", n, last)
		}
		last = n
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "pillars", InputTokens: 100, OutputTokens: 900, LatencyMs: 1200, Success: true, RequestBody: "req", ResponseBody: "resp"},
		{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "tutor", InputTokens: 50, OutputTokens: 40, LatencyMs: 400, Success: true},
		{Provider: "gemini", Model: "gemini-2.5-pro", Purpose: "tutor", InputTokens: 70, OutputTokens: 60, LatencyMs: 600, Success: false, ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Model != "gemini-2.5-pro" || got[0].Success {
		t.Errorf("newest event = %+v", got[0])
	}
	if got[0].ErrorMessage != "rate limited" {
		t.Errorf("error message = %q", got[0].ErrorMessage)
	}

	first, err := repo.QueryLLMEvents(ctx, QueryOpts{Before: got[1].Sequence})
	if err != nil {
		t.Fatalf("query before: %v", err)
	}
	if len(first) != 1 || first[0].Purpose != "pillars" {
		t.Fatalf("before filter = %+v", first)
	}

	tutorOnly, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "tutor", Limit: 5})
	if err != nil {
		t.Fatalf("query purpose: %v", err)
	}
	if len(tutorOnly) != 2 {
		t.Fatalf("purpose filter returned %d events, want 2", len(tutorOnly))
	}

	e, err := repo.GetLLMEvent(ctx, first[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e == nil || e.RequestBody != "req" || e.ResponseBody != "resp" {
		t.Errorf("get = %+v", e)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing event")
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("purposes = %d, want 2", len(byPurpose))
	}
	tutor := byPurpose[1]
	if tutor.Purpose != "tutor" || tutor.Calls != 2 || tutor.InputTokens != 120 || tutor.AvgLatencyMs != 500 {
		t.Errorf("tutor usage = %+v", tutor)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "gemini-2.5-flash" || byModel[0].Calls != 2 {
		t.Errorf("model usage = %+v", byModel)
	}
}

func TestLLMEventsTimeRange(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "tutor", Success: true}); err != nil {
		t.Fatalf("append: %v", err)
	}

	future, err := repo.QueryLLMEvents(ctx, QueryOpts{From: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(future) != 0 {
		t.Errorf("expected no events from the future, got %d", len(future))
	}

	past, err := repo.QueryLLMEvents(ctx, QueryOpts{From: time.Now().Add(-time.Hour), To: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(past) != 1 {
		t.Errorf("expected 1 event in range, got %d", len(past))
	}
}

func TestCourseUpsertAndList(t *testing.T) {
	s := openTestStore(t)
	repo := s.CourseRepo()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	docs := []CourseDoc{
		{UserID: "u1", ID: "c1", Subject: "Quantum", Data: json.RawMessage(`{"subject":"Quantum"}`), CreatedAt: base, LastAccessed: base, Version: 1},
		{UserID: "u1", ID: "c2", Subject: "Baking", Data: json.RawMessage(`{"subject":"Baking"}`), CreatedAt: base, LastAccessed: base.Add(time.Hour), Version: 1},
		{UserID: "u2", ID: "c3", Subject: "Chess", Data: json.RawMessage(`{"subject":"Chess"}`), CreatedAt: base, LastAccessed: base, Version: 1},
	}
	for _, d := range docs {
		if err := repo.Upsert(ctx, d); err != nil {
			t.Fatalf("upsert %s: %v", d.ID, err)
		}
	}

	list, err := repo.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d courses, want 2", len(list))
	}
	if list[0].ID != "c2" || list[1].ID != "c1" {
		t.Errorf("order = %s,%s; want c2,c1", list[0].ID, list[1].ID)
	}
	if !list[1].LastAccessed.Equal(base) {
		t.Errorf("last accessed = %v, want %v", list[1].LastAccessed, base)
	}

	other, err := repo.List(ctx, "nobody")
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected empty list, got %d", len(other))
	}
}

func TestCourseUpsertMergesFields(t *testing.T) {
	s := openTestStore(t)
	repo := s.CourseRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	err := repo.Upsert(ctx, CourseDoc{
		UserID: "u1", ID: "c1", Subject: "Quantum",
		Data:      json.RawMessage(`{"subject":"Quantum","curriculum":{"title":"Waves"},"completedSubLessons":[]}`),
		CreatedAt: now, LastAccessed: now, Version: 1,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	err = repo.Upsert(ctx, CourseDoc{
		UserID: "u1", ID: "c1", Subject: "Quantum",
		Data:      json.RawMessage(`{"completedSubLessons":["1-1"]}`),
		CreatedAt: now, LastAccessed: now.Add(time.Minute), Version: 2,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	list, err := repo.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(list[0].Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["subject"] != "Quantum" {
		t.Errorf("subject lost in merge: %v", got)
	}
	if _, ok := got["curriculum"]; !ok {
		t.Errorf("curriculum lost in merge: %v", got)
	}
	if done, _ := got["completedSubLessons"].([]any); len(done) != 1 {
		t.Errorf("completedSubLessons = %v", got["completedSubLessons"])
	}
	if list[0].Version != 2 {
		t.Errorf("version = %d, want 2", list[0].Version)
	}
}

func TestCourseUpsertRejectsStaleVersion(t *testing.T) {
	s := openTestStore(t)
	repo := s.CourseRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	doc := CourseDoc{UserID: "u1", ID: "c1", Data: json.RawMessage(`{"a":1}`), CreatedAt: now, LastAccessed: now, Version: 5}
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}

	doc.Version = 3
	doc.Data = json.RawMessage(`{"a":2}`)
	err := repo.Upsert(ctx, doc)
	if !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("expected ErrStaleVersion, got %v", err)
	}

	list, _ := repo.List(ctx, "u1")
	if string(list[0].Data) != `{"a":1}` {
		t.Errorf("stale write applied: %s", list[0].Data)
	}
}

func TestCourseDelete(t *testing.T) {
	s := openTestStore(t)
	repo := s.CourseRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Upsert(ctx, CourseDoc{UserID: "u1", ID: "c1", Data: json.RawMessage(`{}`), CreatedAt: now, LastAccessed: now}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.Delete(ctx, "u1", "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "u1", "c1"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}

	list, err := repo.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no courses after delete, got %d", len(list))
	}
}

func TestMergeJSON(t *testing.T) {
	tests := []struct {
		name        string
		base, patch string
		want        map[string]any
	}{
		{"empty base", ``, `{"a":1}`, map[string]any{"a": float64(1)}},
		{"null base", `null`, `{"a":1}`, map[string]any{"a": float64(1)}},
		{"keeps absent keys", `{"a":1,"b":2}`, `{"b":3}`, map[string]any{"a": float64(1), "b": float64(3)}},
		{"nested objects", `{"o":{"x":1,"y":2}}`, `{"o":{"y":5}}`, map[string]any{"o": map[string]any{"x": float64(1), "y": float64(5)}}},
		{"arrays replace", `{"l":[1,2]}`, `{"l":[3]}`, map[string]any{"l": []any{float64(3)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MergeJSON(json.RawMessage(tt.base), json.RawMessage(tt.patch))
			if err != nil {
				t.Fatalf("merge: %v", err)
			}
			var got map[string]any
			if err := json.Unmarshal(out, &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			gb, _ := json.Marshal(got)
			wb, _ := json.Marshal(tt.want)
			if string(gb) != string(wb) {
				t.Errorf("merged = %s, want %s", gb, wb)
			}
		})
	}
}

func TestDefaultDBPath_Env(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sub", "custom.db")
	t.Setenv("PATHWISE_DB", p)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if got != p {
		t.Errorf("path = %q, want %q", got, p)
	}
}

func TestDataDir_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	got, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if got != filepath.Join(dir, "pathwise") {
		t.Errorf("DataDir = %q", got)
	}
}
