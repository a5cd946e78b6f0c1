package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"classroom-levels-service/internal/domain"
)

func TestStatusStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewStatusStore(newClient(mr), "christmas", time.Minute)
	ctx := context.Background()

	if _, ok, err := store.Latest(ctx); err != nil || ok {
		t.Fatalf("expected no status yet, ok=%v err=%v", ok, err)
	}

	want := domain.SessionStatus{Started: true, LevelIndex: 2, LevelID: "quiz", LevelType: domain.LevelQuiz, Participants: 12}
	if err := store.PublishStatus(ctx, want); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !mr.Exists("classroom:session:christmas") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("classroom:session:christmas"); ttl != time.Minute {
		t.Fatalf("expected ttl of a minute, got %v", ttl)
	}

	got, ok, err := store.Latest(ctx)
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if got.LevelID != "quiz" || got.Participants != 12 || !got.Started {
		t.Fatalf("unexpected status %+v", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("classroom:session:christmas") {
		t.Fatalf("expected redis key to be removed")
	}
}
