package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/bloomup/internal/models"
)

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rs, err := NewRedisStore(ctx, "redis://"+mr.Addr(), "test:")
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer rs.Close()
	s := New(rs)

	habits := []models.Habit{{ID: "1", Name: "Read", IsActive: true, History: map[string]bool{"2025-02-01": true}}}
	if err := s.SaveHabits(ctx, habits); err != nil {
		t.Fatalf("SaveHabits() error = %v", err)
	}
	if !mr.Exists("test:bloomup/habits@v3") {
		t.Error("expected prefixed key in redis")
	}

	got, err := s.Habits(ctx)
	if err != nil {
		t.Fatalf("Habits() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "Read" || !got[0].History["2025-02-01"] {
		t.Errorf("Habits() = %+v", got)
	}

	if err := rs.Delete(ctx, "missing"); !IsMiss(err) {
		t.Errorf("Delete(missing) = %v, want miss", err)
	}
	if _, err := rs.Get(ctx, "missing"); !IsMiss(err) {
		t.Errorf("Get(missing) = %v, want miss", err)
	}
}

func TestRedisStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisStore(context.Background(), "redis://"+addr, ""); err == nil {
		t.Error("expected error connecting to a closed server")
	}
}

func TestRedisStoreFromClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := New(NewRedisStoreFromClient(client, ""))
	defer s.Close()

	if err := s.SaveToken(context.Background(), "abc"); err != nil {
		t.Fatal(err)
	}
	if tok, _ := s.Token(context.Background()); tok != "abc" {
		t.Errorf("Token() = %q", tok)
	}
}
