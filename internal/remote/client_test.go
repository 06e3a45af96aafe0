package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/julianstephens/bloomup/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"ftp://x", "://", "localhost:8000"} {
		if _, err := New(u); err == nil {
			t.Errorf("New(%q) should fail", u)
		}
	}
}

func TestListHabitsNormalizesAndSendsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/habits" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[{"habit_id": 4, "habit_name": "Journal", "emoji": "✍️", "duration_minutes": 10, "is_active": true, "history": {"2025-01-01": true}}]`))
	}, WithStaticToken("secret"))

	habits, err := c.ListHabits(context.Background())
	if err != nil {
		t.Fatalf("ListHabits() error = %v", err)
	}
	if len(habits) != 1 || habits[0].ID != "4" || habits[0].Name != "Journal" || habits[0].DurationMinutes != 10 {
		t.Errorf("ListHabits() = %+v", habits)
	}
}

func TestUnauthorizedRunsHook(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Could not validate credentials"}`))
	}, WithUnauthorizedHook(func(context.Context) { atomic.AddInt32(&calls, 1) }))

	_, err := c.ListHabits(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if !IsUnauthorized(err) {
		t.Error("IsUnauthorized() = false")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("hook calls = %d, want 1", calls)
	}
	var herr *HTTPError
	if !errors.As(err, &herr) || herr.Detail != "Could not validate credentials" {
		t.Errorf("detail not parsed: %v", err)
	}
}

func TestSetCompleted(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := context.Background()
	if err := c.SetCompleted(ctx, "9", "2025-04-01", true); err != nil {
		t.Fatal(err)
	}
	if err := c.SetCompleted(ctx, "9", "2025-04-01", false); err != nil {
		t.Fatal(err)
	}
	want := []string{"POST /habits/9/complete?on=2025-04-01", "DELETE /habits/9/complete?on=2025-04-01"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Errorf("requests = %v, want %v", seen, want)
	}
}

func TestStatusSentinels(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
		detail string
	}{
		{http.StatusNotFound, `{"detail": "Habit not found"}`, ErrNotFound, "Habit not found"},
		{http.StatusConflict, `{"detail": "session exists"}`, ErrConflict, "session exists"},
		{http.StatusUnprocessableEntity, `{"detail": [{"msg": "too short"}, {"msg": "bad date"}]}`, ErrBadRequest, "too short; bad date"},
		{http.StatusBadRequest, `{"error": "invalid"}`, ErrBadRequest, "invalid"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.CreateSession(context.Background(), "1", 60, "2025-01-01")
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var herr *HTTPError
			if errors.As(err, &herr) && herr.Detail != tt.detail {
				t.Errorf("detail = %q, want %q", herr.Detail, tt.detail)
			}
		})
	}
}

func TestSessionsRoundTrip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			if r.URL.Query().Get("date_filter") != "2025-03-03" {
				t.Errorf("date_filter = %q", r.URL.Query().Get("date_filter"))
			}
			w.Write([]byte(`[{"session_id": 5, "habit_id": 2, "status": "todo", "planned_duration_seconds": 600, "actual_duration_seconds": 0, "session_date": "2025-03-03"}]`))
		case r.Method == http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), `"status":"in_progress"`) || !strings.Contains(string(body), `"actual_duration_seconds":35`) {
				t.Errorf("body = %s", body)
			}
			if r.URL.Path != "/habits/2/sessions/5" {
				t.Errorf("path = %s", r.URL.Path)
			}
			w.Write([]byte(`{"session_id": 5, "habit_id": 2, "status": "in_progress", "actual_duration_seconds": 35}`))
		}
	})

	ctx := context.Background()
	list, err := c.ListSessions(ctx, "2", "2025-03-03")
	if err != nil || len(list) != 1 || list[0].ID != "5" {
		t.Fatalf("ListSessions() = %+v, %v", list, err)
	}
	s, err := c.UpdateSession(ctx, "2", "5", models.SessionUpdate{Status: models.SessionInProgress, ActualDurationSeconds: 35})
	if err != nil {
		t.Fatal(err)
	}
	if s.Status != models.SessionInProgress || s.ActualDurationSeconds != 35 {
		t.Errorf("UpdateSession() = %+v", s)
	}
}

func TestTodayMoodNull(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})
	m, err := c.TodayMood(context.Background())
	if err != nil || m != nil {
		t.Errorf("TodayMood() = %v, %v; want nil, nil", m, err)
	}
}

func TestUploadAvatar(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile() error = %v", err)
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "me.png" || string(data) != "PNGDATA" {
			t.Errorf("got %s with %q", hdr.Filename, data)
		}
		w.Write([]byte(`{"user_id": 1, "name": "Ann", "email": "a@b.c", "profile_picture": "/avatars/1.png"}`))
	})

	u, err := c.UploadAvatar(context.Background(), "/tmp/me.png", strings.NewReader("PNGDATA"))
	if err != nil {
		t.Fatal(err)
	}
	if u.ProfilePicture != "/avatars/1.png" || u.ID != "1" {
		t.Errorf("UploadAvatar() = %+v", u)
	}
}

func TestTransportErrorIsNotHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	c, _ := New(srv.URL)

	_, err := c.ListHabits(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	var herr *HTTPError
	if errors.As(err, &herr) {
		t.Errorf("transport failure should not be an HTTPError: %v", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("transport failure must not look like an auth failure")
	}
}
