// Package session keeps exactly one server-side work session per habit
// and day, and pushes timer progress to it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/remote"
	"github.com/julianstephens/bloomup/internal/utils"
)

const defaultPushTimeout = 10 * time.Second

// Remote is the session half of the habit server API.
type Remote interface {
	ListSessions(ctx context.Context, habitID, day string) ([]models.Session, error)
	CreateSession(ctx context.Context, habitID string, plannedSeconds int, day string) (models.Session, error)
	UpdateSession(ctx context.Context, habitID, sessionID string, upd models.SessionUpdate) (models.Session, error)
}

type Options struct {
	// Today returns the current calendar day. Defaults to the local day.
	Today func() string
	// PushTimeout bounds each background progress push.
	PushTimeout time.Duration
}

type Manager struct {
	remote Remote
	opts   Options
	group  singleflight.Group
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]models.Session
	issued   map[string]uint64
	sent     map[string]uint64
	keyLocks map[string]*sync.Mutex
}

func NewManager(r Remote, opts Options) *Manager {
	if opts.Today == nil {
		opts.Today = func() string { return utils.FormatDate(time.Now()) }
	}
	if opts.PushTimeout <= 0 {
		opts.PushTimeout = defaultPushTimeout
	}
	return &Manager{
		remote:   r,
		opts:     opts,
		sessions: make(map[string]models.Session),
		issued:   make(map[string]uint64),
		sent:     make(map[string]uint64),
		keyLocks: make(map[string]*sync.Mutex),
	}
}

// Cached returns the session known for task today, if any.
func (m *Manager) Cached(task models.Task) (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[models.SessionKey(task.ID, m.opts.Today())]
	return s, ok
}

// EnsureSessionForTask returns today's session for task, creating it on
// the server when none exists. Concurrent calls for the same habit share
// one lookup.
func (m *Manager) EnsureSessionForTask(ctx context.Context, task models.Task) (models.Session, error) {
	if task.ID == "" {
		return models.Session{}, errors.New("task has no habit id")
	}
	day := m.opts.Today()
	key := models.SessionKey(task.ID, day)

	if s, ok := m.cached(key); ok {
		return s, nil
	}

	v, err, shared := m.group.Do(key, func() (interface{}, error) {
		// a caller may have filled the map while we waited on the group
		if s, ok := m.cached(key); ok {
			return s, nil
		}
		s, err := m.findOrCreate(ctx, task, day)
		if err != nil {
			return models.Session{}, err
		}
		m.mu.Lock()
		m.sessions[key] = s
		m.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return models.Session{}, err
	}
	if shared {
		logger.Debug("Shared in-flight session lookup", "key", key)
	}
	return v.(models.Session), nil
}

func (m *Manager) findOrCreate(ctx context.Context, task models.Task, day string) (models.Session, error) {
	if s, ok, err := m.find(ctx, task.ID, day); err != nil || ok {
		return s, err
	}

	planned := task.Minutes * 60
	if planned < 1 {
		planned = 1
	}
	s, err := m.remote.CreateSession(ctx, task.ID, planned, day)
	if err == nil {
		logger.Info("Created session", "habit", task.ID, "day", day, "session", s.ID)
		return s, nil
	}
	if !errors.Is(err, remote.ErrConflict) {
		return models.Session{}, fmt.Errorf("create session for %s: %w", task.Name, err)
	}

	logger.Debug("Session already exists, re-querying", "habit", task.ID, "day", day)
	s, ok, err := m.find(ctx, task.ID, day)
	if err != nil {
		return models.Session{}, err
	}
	if !ok {
		return models.Session{}, fmt.Errorf("session for %s on %s reported as existing but not found", task.Name, day)
	}
	return s, nil
}

func (m *Manager) find(ctx context.Context, habitID, day string) (models.Session, bool, error) {
	list, err := m.remote.ListSessions(ctx, habitID, day)
	if err != nil {
		return models.Session{}, false, fmt.Errorf("list sessions: %w", err)
	}
	for _, s := range list {
		if s.SessionDate == "" || len(s.SessionDate) >= 10 && s.SessionDate[:10] == day {
			return s, true, nil
		}
	}
	return models.Session{}, false, nil
}

// UpdateSessionProgress records elapsed work on task without blocking.
func (m *Manager) UpdateSessionProgress(task models.Task, elapsedSeconds int) {
	m.push(task, models.SessionUpdate{Status: models.SessionInProgress, ActualDurationSeconds: elapsedSeconds})
}

// Checkpoint keeps elapsed work while the timer is paused.
func (m *Manager) Checkpoint(task models.Task, elapsedSeconds int) {
	m.push(task, models.SessionUpdate{Status: models.SessionTodo, ActualDurationSeconds: elapsedSeconds})
}

// Complete marks today's session for task done.
func (m *Manager) Complete(task models.Task, elapsedSeconds int) {
	m.push(task, models.SessionUpdate{Status: models.SessionDone, ActualDurationSeconds: elapsedSeconds})
}

// Wait blocks until every push issued so far has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) push(task models.Task, upd models.SessionUpdate) {
	today := m.opts.Today()
	key := models.SessionKey(task.ID, today)

	m.mu.Lock()
	m.pruneLocked(today)
	m.issued[key]++
	seq := m.issued[key]
	lock, ok := m.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.keyLocks[key] = lock
	}
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		// pushes for one key reach the server in issue order; an older
		// push that loses the race for the lock is dropped
		lock.Lock()
		defer lock.Unlock()

		m.mu.Lock()
		stale := seq <= m.sent[key]
		if !stale {
			m.sent[key] = seq
		}
		m.mu.Unlock()
		if stale {
			logger.Debug("Dropping superseded session push", "key", key, "seq", seq)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), m.opts.PushTimeout)
		defer cancel()

		s, err := m.EnsureSessionForTask(ctx, task)
		if err != nil {
			logger.Warn("Session progress not saved", "habit", task.ID, "error", err)
			return
		}
		updated, err := m.remote.UpdateSession(ctx, task.ID, string(s.ID), upd)
		if err != nil {
			logger.Warn("Session progress not saved", "habit", task.ID, "status", upd.Status, "error", err)
			return
		}
		if updated.ID == "" {
			updated = s
			updated.Status = upd.Status
			updated.ActualDurationSeconds = upd.ActualDurationSeconds
		}

		m.mu.Lock()
		m.sessions[key] = updated
		m.mu.Unlock()
	}()
}

// pruneLocked forgets every key that belongs to a day other than today.
// Callers hold m.mu.
func (m *Manager) pruneLocked(today string) {
	suffix := ":" + today
	for key := range m.issued {
		if !strings.HasSuffix(key, suffix) {
			delete(m.issued, key)
			delete(m.sent, key)
			delete(m.keyLocks, key)
		}
	}
	for key := range m.sessions {
		if !strings.HasSuffix(key, suffix) {
			delete(m.sessions, key)
		}
	}
}

func (m *Manager) cached(key string) (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	return s, ok
}
