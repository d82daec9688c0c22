// Package session keeps the interactive state of each uploaded file: its
// dataset, the employee list and the current selection.
package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/activofijo/vales-resguardo/internal/models"
)

// MaxSessions limits concurrent sessions to prevent memory exhaustion
const MaxSessions = 20

// SessionMaxAge is how long an idle session is kept before cleanup
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

var (
	ErrNotFound        = errors.New("session not found")
	ErrUnknownEmployee = errors.New("employee not in session")
	ErrEmptyDataset    = errors.New("dataset has no records")
)

// Options configures a Manager.
type Options struct {
	MaxSessions int
	KeepAlive   time.Duration
	Logger      *zap.Logger
	// OnRelease is called with the file id of every dataset a session drops,
	// after the manager lock is released.
	OnRelease func(fileID string)
	Now       func() time.Time
}

// Manager handles active upload sessions.
type Manager struct {
	sessions    map[string]*SessionState
	mu          sync.RWMutex
	maxSessions int
	keepAlive   time.Duration
	logger      *zap.Logger
	onRelease   func(fileID string)
	now         func() time.Time
}

// SessionState holds the session metadata and its dataset.
type SessionState struct {
	Session      *models.Session
	Dataset      *models.Dataset
	LastAccessed time.Time
}

// NewManager creates a session manager.
func NewManager(opts Options) *Manager {
	m := &Manager{
		sessions:    make(map[string]*SessionState),
		maxSessions: opts.MaxSessions,
		keepAlive:   opts.KeepAlive,
		logger:      opts.Logger,
		onRelease:   opts.OnRelease,
		now:         opts.Now,
	}
	if m.maxSessions <= 0 {
		m.maxSessions = MaxSessions
	}
	if m.keepAlive <= 0 {
		m.keepAlive = SessionKeepAliveWindow
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Create opens a session over ds. When the manager is full the least
// recently used session is evicted first.
func (m *Manager) Create(file *models.FileInfo, ds *models.Dataset, processing time.Duration) (*models.Session, error) {
	if ds.IsEmpty() {
		return nil, ErrEmptyDataset
	}

	now := m.now()
	sess := models.NewSession(uuid.New().String(), file, ds, now)
	sess.ProcessingTimeMs = processing.Milliseconds()

	m.mu.Lock()
	released := m.evictIfFullLocked()
	m.sessions[sess.ID] = &SessionState{Session: sess, Dataset: ds, LastAccessed: now}
	out := copySession(sess)
	m.mu.Unlock()

	m.release(released)
	m.logger.Info("session created",
		zap.String("session", sess.ID),
		zap.String("file", sess.FileName),
		zap.Int("employees", len(sess.Employees)),
		zap.Int("items", sess.Stats.Items))
	return out, nil
}

// Get returns a copy of a session and marks it as accessed.
func (m *Manager) Get(id string) (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	state.LastAccessed = m.now()
	return copySession(state.Session), true
}

// Dataset returns the dataset of a session. It must be treated as read-only.
func (m *Manager) Dataset(id string) (*models.Dataset, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	state.LastAccessed = m.now()
	return state.Dataset, true
}

// Selection returns the selected employee and the dataset of a session.
func (m *Manager) Selection(id string) (string, *models.Dataset, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return "", nil, false
	}
	state.LastAccessed = m.now()
	return state.Session.SelectedEmployee, state.Dataset, true
}

// Select changes the selected employee. The name must be one of the
// session's employees.
func (m *Manager) Select(id, name string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !state.Dataset.HasEmployee(name) {
		return nil, ErrUnknownEmployee
	}
	now := m.now()
	state.Session.SelectedEmployee = name
	state.Session.UpdatedAt = now
	state.LastAccessed = now
	return copySession(state.Session), nil
}

// Replace swaps the dataset of a session and resets its selection.
func (m *Manager) Replace(id string, file *models.FileInfo, ds *models.Dataset, processing time.Duration) (*models.Session, error) {
	if ds.IsEmpty() {
		return nil, ErrEmptyDataset
	}

	m.mu.Lock()
	state, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	previous := state.Session.FileID
	now := m.now()
	state.Session.Load(file, ds, now)
	state.Session.ProcessingTimeMs = processing.Milliseconds()
	state.Dataset = ds
	state.LastAccessed = now
	out := copySession(state.Session)
	m.mu.Unlock()

	if previous != "" && previous != out.FileID {
		m.release([]string{previous})
	}
	m.logger.Info("session file replaced",
		zap.String("session", id),
		zap.String("file", out.FileName),
		zap.Int("employees", len(out.Employees)))
	return out, nil
}

// Remove closes a session.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	state.Session.Status = models.SessionStatusRemoved
	m.release([]string{state.Session.FileID})
	m.logger.Info("session removed", zap.String("session", id))
	return nil
}

// Touch updates the LastAccessed time for a session to keep it alive.
func (m *Manager) Touch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.LastAccessed = m.now()
	return true
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions removes sessions idle for longer than maxAge, but keeps
// sessions accessed within the keep-alive window. It returns how many
// sessions were removed.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	now := m.now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-m.keepAlive)

	var released []string
	for id, state := range m.sessions {
		if state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			released = append(released, state.Session.FileID)
			m.logger.Info("cleaned up aged session",
				zap.String("session", id),
				zap.Duration("idle", now.Sub(state.LastAccessed).Round(time.Second)))
		}
	}
	m.mu.Unlock()

	m.release(released)
	return len(released)
}

// evictIfFullLocked drops least recently used sessions until one more fits.
func (m *Manager) evictIfFullLocked() []string {
	if len(m.sessions) < m.maxSessions {
		return nil
	}

	states := make([]*SessionState, 0, len(m.sessions))
	for _, state := range m.sessions {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].LastAccessed.Before(states[j].LastAccessed)
	})

	toFree := len(m.sessions) - m.maxSessions + 1
	released := make([]string, 0, toFree)
	for _, state := range states[:toFree] {
		delete(m.sessions, state.Session.ID)
		released = append(released, state.Session.FileID)
		m.logger.Info("evicted least recently used session", zap.String("session", state.Session.ID))
	}
	return released
}

func (m *Manager) release(fileIDs []string) {
	if m.onRelease == nil {
		return
	}
	for _, id := range fileIDs {
		if id != "" {
			m.onRelease(id)
		}
	}
}

func copySession(s *models.Session) *models.Session {
	out := *s
	return &out
}
