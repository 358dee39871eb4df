package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/stochfold/pkg/errors"
	pkgio "github.com/matzehuels/stochfold/pkg/io"
)

func newRun(age time.Duration) *Run {
	return &Run{
		ID:        NewID(),
		CreatedAt: time.Now().Add(-age).UTC().Truncate(time.Millisecond),
		Document: &pkgio.Document{
			Sequences: []string{"GGGAAAUCCC"},
			Kind:      "single",
			Samples:   []pkgio.SampleDoc{{Structure: "(((...))).", Energy: 1.1, Probability: 0.1}},
		},
	}
}

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	old, recent := newRun(time.Hour), newRun(time.Minute)
	for _, r := range []*Run{old, recent} {
		if err := s.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := s.Get(ctx, old.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Document.Samples[0].Structure != "(((...)))." {
		t.Errorf("Get returned %+v", got.Document)
	}

	runs, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) < 2 || runs[0].ID != recent.ID {
		t.Errorf("List should return the most recent run first")
	}
	if runs, _ := s.List(ctx, 1); len(runs) != 1 {
		t.Errorf("List(1) returned %d runs", len(runs))
	}

	if err := s.Delete(ctx, old.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, old.ID); !errors.Is(err, errors.ErrCodeRunNotFound) {
		t.Errorf("Get after Delete err = %v, want RUN_NOT_FOUND", err)
	}
	if err := s.Delete(ctx, old.ID); !errors.Is(err, errors.ErrCodeRunNotFound) {
		t.Errorf("second Delete err = %v, want RUN_NOT_FOUND", err)
	}
	if err := s.Save(ctx, &Run{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Save without ID err = %v, want INVALID_INPUT", err)
	}
	_ = s.Delete(ctx, recent.ID)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close(context.Background())
	exerciseStore(t, s)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("STOCHFOLD_TEST_MONGO")
	if uri == "" {
		t.Skip("STOCHFOLD_TEST_MONGO not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, err := NewMongoStore(ctx, uri, "stochfold_test", "runs_"+NewID()[:8])
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer s.Close(ctx)
	exerciseStore(t, s)
}

func TestIDs(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Error("NewID should not repeat")
	}
	if !ValidID(a) {
		t.Errorf("ValidID(%q) = false", a)
	}
	if ValidID("not-a-run") {
		t.Error("ValidID accepted garbage")
	}
}
