package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/bloomup/internal/models"
)

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{HabitsKey, "bloomup/habits@v3"},
		{TimerKey, "bloomup/timer@v1"},
		{TokenKey, "bloomup/token"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("Key.String() = %q, want %q", got, tt.want)
		}
	}
}

func backends(t *testing.T) map[string]Backend {
	return map[string]Backend{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(filepath.Join(t.TempDir(), "nested", "cache.json")),
	}
}

func TestStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(b)

			if _, err := s.Timer(ctx); !IsMiss(err) {
				t.Fatalf("Timer() on empty store error = %v, want miss", err)
			}

			snap := models.TimerSnapshot{Day: "2025-06-01", Mode: models.ModePomodoro, Phase: models.PhaseWork, TimeLeftSeconds: 1500}
			if err := s.SaveTimer(ctx, snap); err != nil {
				t.Fatalf("SaveTimer() error = %v", err)
			}
			got, err := s.Timer(ctx)
			if err != nil {
				t.Fatalf("Timer() error = %v", err)
			}
			if got.Day != snap.Day || got.TimeLeftSeconds != 1500 || got.Mode != models.ModePomodoro {
				t.Errorf("Timer() = %+v", got)
			}

			if err := s.Delete(ctx, TimerKey); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if err := s.Delete(ctx, TimerKey); err != nil {
				t.Errorf("Delete() of missing key should be a no-op, got %v", err)
			}
		})
	}
}

func TestSessionClear(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())

	_ = s.SaveToken(ctx, "tok")
	_ = s.SaveUser(ctx, models.User{ID: "1", Name: "Ann"})

	if tok, _ := s.Token(ctx); tok != "tok" {
		t.Fatalf("Token() = %q", tok)
	}
	if err := s.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}
	if _, err := s.Token(ctx); !IsMiss(err) {
		t.Errorf("token survived ClearSession: %v", err)
	}
	if _, err := s.User(ctx); !IsMiss(err) {
		t.Errorf("user survived ClearSession: %v", err)
	}
}

func TestHabitsLegacyMigration(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	_ = mem.Set(ctx, "habit-tracker@hybrid", []byte(`[{"id":"a","name":"Old","category":"General","history":{"2025-01-01":true}}]`))
	s := New(mem)

	habits, err := s.Habits(ctx)
	if err != nil {
		t.Fatalf("Habits() error = %v", err)
	}
	if len(habits) != 1 || habits[0].ID != "a" || !habits[0].History["2025-01-01"] {
		t.Fatalf("Habits() = %+v", habits)
	}

	if _, err := mem.Get(ctx, HabitsKey.String()); err != nil {
		t.Errorf("legacy habits were not migrated to %s: %v", HabitsKey, err)
	}
}

func TestHabitsEmpty(t *testing.T) {
	habits, err := New(NewMemoryStore()).Habits(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if habits == nil || len(habits) != 0 {
		t.Errorf("Habits() = %#v, want empty non-nil", habits)
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	_ = mem.Set(ctx, TimerKey.String(), []byte(`{"v": 9, "savedAt": "x", "data": {}}`))

	_, err := New(mem).Timer(ctx)
	if !errors.Is(err, ErrNewerVersion) {
		t.Errorf("error = %v, want ErrNewerVersion", err)
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")

	if err := New(NewFileStore(path)).SaveToken(ctx, "persisted"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("cache file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("cache file mode = %v, want 0600", info.Mode().Perm())
	}

	tok, err := New(NewFileStore(path)).Token(ctx)
	if err != nil || tok != "persisted" {
		t.Errorf("Token() = %q, %v", tok, err)
	}
}

func TestFileStoreSharedPath(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")
	a, b := NewFileStore(path), NewFileStore(path)

	steps := []struct {
		store *FileStore
		key   string
		value string
	}{
		{a, "k1", `"a1"`},
		{b, "k2", `"b2"`},
		{a, "k1", `"a1-again"`},
		{b, "k3", `"b3"`},
	}
	for _, s := range steps {
		if err := s.store.Set(ctx, s.key, []byte(s.value)); err != nil {
			t.Fatalf("Set(%s) error = %v", s.key, err)
		}
	}
	if err := a.Delete(ctx, "k3"); err != nil {
		t.Fatalf("Delete(k3) through the other store error = %v", err)
	}

	fresh := NewFileStore(path)
	want := map[string]string{"k1": `"a1-again"`, "k2": `"b2"`}
	for key, v := range want {
		got, err := fresh.Get(ctx, key)
		if err != nil || string(got) != v {
			t.Errorf("Get(%s) = %s, %v, want %s", key, got, err, v)
		}
	}
	if _, err := fresh.Get(ctx, "k3"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get(k3) error = %v, want ErrMiss", err)
	}
}

func TestFileStoreRejectsInvalidJSON(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "c.json"))
	if err := fs.Set(context.Background(), "k", []byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON value")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, spec := range []string{"", "file", "memory", "file:" + filepath.Join(dir, "x.json")} {
		s, err := Open(ctx, spec, dir)
		if err != nil {
			t.Errorf("Open(%q) error = %v", spec, err)
			continue
		}
		_ = s.Close()
	}

	if _, err := Open(ctx, "etcd://nope", dir); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestMoodToday(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())

	if _, err := s.MoodToday(ctx, "2025-03-11"); !errors.Is(err, ErrMiss) {
		t.Fatalf("empty MoodToday() error = %v, want ErrMiss", err)
	}
	if err := s.SaveMoodToday(ctx, "2025-03-11", &models.Mood{ID: "4", Score: 7, LoggedOn: "2025-03-11"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		day       string
		wantScore int
		wantMiss  bool
	}{
		{"same day", "2025-03-11", 7, false},
		{"next day", "2025-03-12", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := s.MoodToday(ctx, tt.day)
			if tt.wantMiss {
				if !errors.Is(err, ErrMiss) {
					t.Errorf("MoodToday(%s) = %+v, %v, want ErrMiss", tt.day, m, err)
				}
				return
			}
			if err != nil || m == nil || m.Score != tt.wantScore {
				t.Errorf("MoodToday(%s) = %+v, %v", tt.day, m, err)
			}
		})
	}

	if err := s.SaveMoodToday(ctx, "2025-03-12", nil); err != nil {
		t.Fatal(err)
	}
	if m, err := s.MoodToday(ctx, "2025-03-12"); err != nil || m != nil {
		t.Errorf("MoodToday() after saving nothing logged = %+v, %v, want nil, nil", m, err)
	}
}
