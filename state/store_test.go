package state

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	return s
}

func TestProgressDefaultsWhenMissing(t *testing.T) {
	s := newTestStore(t)
	p, err := s.Progress()
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if p.LastIndex != -1 || p.TotalGenerated != 0 || p.LastGeneratedAt != nil {
		t.Fatalf("progress = %+v", p)
	}
}

func TestSaveAndResetProgress(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.SaveProgress(ctx, 0, "Creatine"); err != nil {
		t.Fatal(err)
	}
	p, err := s.SaveProgress(ctx, 1, "GABA")
	if err != nil {
		t.Fatal(err)
	}
	if p.LastIndex != 1 || p.LastSubject != "GABA" || p.TotalGenerated != 2 {
		t.Fatalf("progress = %+v", p)
	}
	got, _ := s.Progress()
	if got.TotalGenerated != 2 || got.LastGeneratedAt == nil {
		t.Fatalf("reloaded = %+v", got)
	}
	if _, err := s.ResetProgress(ctx); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Progress()
	if got.LastIndex != -1 || got.TotalGenerated != 0 {
		t.Fatalf("after reset = %+v", got)
	}
}

func TestCorruptDocumentSurfacesError(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(filepath.Join(s.Dir(), progressFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Progress(); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestAppendPostAndRelated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i, sub := range []string{"Creatine", "GABA", "Ashwagandha", "gaba"} {
		if _, err := s.AppendPost(ctx, sub, "https://example.com/"+sub+"-guide/", int64(i+1)); err != nil {
			t.Fatal(err)
		}
	}
	posts, err := s.Posts()
	if err != nil || len(posts) != 4 {
		t.Fatalf("posts = %v, %v", posts, err)
	}
	if posts[0].Slug != "Creatine-guide" || posts[0].PostID != 1 {
		t.Fatalf("first post = %+v", posts[0])
	}
	rel, err := s.Related([]string{"GABA", "Creatine"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rel) != 2 || rel[0].Subject != "Creatine" || rel[1].Subject != "GABA" {
		t.Fatalf("related = %+v", rel)
	}
	if rel, _ := s.Related(nil, 5); rel != nil {
		t.Fatalf("related with no subjects = %+v", rel)
	}
}

func TestConcurrentAppendsKeepEveryEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.AppendPost(ctx, "Subject", "https://example.com/p", int64(i)); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
	posts, err := s.Posts()
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 20 {
		t.Fatalf("got %d posts, want 20", len(posts))
	}
}
