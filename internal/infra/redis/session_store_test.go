package redis

import (
	"context"
	"testing"
	"time"

	"quizgate/internal/session"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)

	if _, ok, err := store.Load(ctx, "quiz-1"); err != nil || ok {
		t.Fatalf("expected no record, got ok=%v err=%v", ok, err)
	}

	rec := session.Record{
		UserName:         "Alice",
		Verified:         true,
		Answers:          []string{"B", ""},
		Cursor:           1,
		RemainingSeconds: 42,
	}
	if err := store.Save(ctx, "quiz-1", rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("quiz:session:quiz-1") {
		t.Fatalf("expected redis key to be set")
	}

	got, ok, err := store.Load(ctx, "quiz-1")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.UserName != "Alice" || !got.Verified || got.Cursor != 1 || got.RemainingSeconds != 42 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if len(got.Answers) != 2 || got.Answers[0] != "B" {
		t.Fatalf("answers not restored: %v", got.Answers)
	}

	if err := store.Clear(ctx, "quiz-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("quiz:session:quiz-1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreRecordsExpire(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	if err := store.Save(ctx, "quiz-1", session.Record{UserName: "Alice"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := store.Load(ctx, "quiz-1"); ok {
		t.Fatalf("expected record expired")
	}
}
