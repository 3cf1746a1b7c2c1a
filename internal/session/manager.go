// Package session tracks upload sessions and drives the mock inference
// lifecycle for each of them.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/transfer-studio/backend/internal/inference"
	"github.com/transfer-studio/backend/internal/logging"
	"github.com/transfer-studio/backend/internal/models"
	"github.com/transfer-studio/backend/internal/parser"
	"github.com/transfer-studio/backend/internal/stats"
	"github.com/transfer-studio/backend/internal/storage"
)

// MaxSessions limits concurrent sessions to prevent memory exhaustion
const MaxSessions = 100

// SessionMaxAge is how long to keep idle sessions before cleanup
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

var (
	// ErrSessionNotFound is returned for unknown or deleted session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrAnalysisInProgress is returned when analysis is requested while
	// the previous one is still running.
	ErrAnalysisInProgress = errors.New("analysis already in progress")
)

// Recorder persists completed analyses.
type Recorder interface {
	Record(ctx context.Context, entry models.HistoryEntry) error
}

// Manager handles active upload sessions.
type Manager struct {
	sessions map[string]*sessionState
	mu       sync.RWMutex

	registry *parser.Registry
	provider inference.Provider
	store    storage.Store
	recorder Recorder
	logger   *zap.Logger

	maxSessions int
	now         func() time.Time

	// inferenceDone is called after every inference goroutine exits.
	inferenceDone func(sessionID string)
}

// sessionState holds the current snapshot and everything that must not
// leak into it.
type sessionState struct {
	snapshot     *models.Session
	storedID     string
	cancel       context.CancelFunc
	lastAccessed time.Time
	subscribers  map[int]chan *models.Session
	nextSub      int
}

// Option configures a Manager.
type Option func(*Manager)

// WithRecorder records every committed result.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMaxSessions overrides MaxSessions.
func WithMaxSessions(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxSessions = n
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a session manager.
func NewManager(registry *parser.Registry, provider inference.Provider, store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		sessions:    make(map[string]*sessionState),
		registry:    registry,
		provider:    provider,
		store:       store,
		logger:      zap.NewNop(),
		maxSessions: MaxSessions,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts an empty session. At capacity the least recently used
// finished sessions are evicted first; the check and the insert share one
// critical section so concurrent creates cannot exceed the limit.
func (m *Manager) Create() *models.Session {
	id := uuid.New().String()
	now := m.now()
	snap := models.NewSession(id, now)

	m.mu.Lock()
	evicted := m.evictForCapacityLocked()
	m.sessions[id] = &sessionState{
		snapshot:     snap,
		lastAccessed: now,
		subscribers:  make(map[int]chan *models.Session),
	}
	m.mu.Unlock()

	for _, storedID := range evicted {
		m.deleteStored(storedID)
	}

	m.logger.Info("session created", zap.String("session", shortID(id)))
	return snap
}

// Get returns the current snapshot of a session.
func (m *Manager) Get(id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return state.snapshot, nil
}

// Touch updates the last access time so the session survives cleanup.
func (m *Manager) Touch(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	state.lastAccessed = m.now()
	return nil
}

// Delete drops a session, cancels its inference and removes its stored file.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	m.dropLocked(id, state)
	m.mu.Unlock()

	m.deleteStored(state.storedID)
	m.logger.Info("session deleted", zap.String("session", shortID(id)))
	return nil
}

// Upload runs intake on a new file and replaces whatever the session held.
// Any in-flight inference is cancelled and its result will never be
// committed. When intake fails the session is left empty, carrying the error
// message, and the intake error is returned.
func (m *Manager) Upload(id, name, mimeType string, r io.Reader) (*models.Session, error) {
	if _, err := m.Get(id); err != nil {
		return nil, err
	}

	file, data, err := m.registry.Read(name, mimeType, r)
	if err != nil {
		m.logger.Warn("intake failed",
			zap.String("session", shortID(id)),
			zap.String("file", logging.Sanitize(name)),
			zap.Error(err))
		if _, clearErr := m.replace(id, nil, nil, "", err.Error()); clearErr != nil {
			return nil, clearErr
		}
		return nil, err
	}

	var textStats *models.TextStatistics
	if text, ok := file.ExtractedText(); ok {
		textStats = stats.Compute(text)
	}

	info, err := m.store.SaveBytes(file.Name, data)
	if err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}
	file.ID = info.ID

	snap, err := m.replace(id, file, textStats, info.ID, "")
	if err != nil {
		m.deleteStored(info.ID)
		return nil, err
	}

	m.logger.Info("file uploaded",
		zap.String("session", shortID(id)),
		zap.String("file", logging.Sanitize(file.Name)),
		zap.String("kind", string(file.Kind)),
		zap.Int64("size", file.Size),
		zap.Uint64("generation", snap.Generation))
	return snap, nil
}

// replace installs a new file (or none) as the next generation.
func (m *Manager) replace(id string, file *models.UploadedFile, textStats *models.TextStatistics, storedID, errMsg string) (*models.Session, error) {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	if state.cancel != nil {
		state.cancel()
		state.cancel = nil
	}
	oldStored := state.storedID
	state.storedID = storedID

	now := m.now()
	next := &models.Session{
		ID:         id,
		Generation: state.snapshot.Generation + 1,
		Status:     models.SessionStatusEmpty,
		File:       file,
		Statistics: textStats,
		Error:      errMsg,
		CreatedAt:  state.snapshot.CreatedAt,
		UpdatedAt:  now,
	}
	if file != nil {
		next.Status = models.SessionStatusReady
		if c, ok := file.Content.(models.CSVContent); ok {
			next.Table = c.Table
		}
	}
	state.lastAccessed = now
	m.publishLocked(state, next)
	m.mu.Unlock()

	m.deleteStored(oldStored)
	return next, nil
}

// Analyze starts mock inference on the session's current file.
func (m *Manager) Analyze(id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	current := state.snapshot
	if current.File == nil {
		return nil, models.ErrMissingInput
	}
	if current.Status == models.SessionStatusProcessing {
		return nil, ErrAnalysisInProgress
	}

	ctx, cancel := context.WithCancel(context.Background())
	state.cancel = cancel

	next := *current
	next.Status = models.SessionStatusProcessing
	next.Result = nil
	next.Error = ""
	next.UpdatedAt = m.now()
	state.lastAccessed = next.UpdatedAt
	m.publishLocked(state, &next)

	go m.runInference(ctx, cancel, id, next.Generation, inference.Request{
		File:       next.File,
		Statistics: next.Statistics,
	})

	m.logger.Info("analysis started",
		zap.String("session", shortID(id)),
		zap.String("provider", m.provider.Name()),
		zap.Uint64("generation", next.Generation))
	return &next, nil
}

func (m *Manager) runInference(ctx context.Context, cancel context.CancelFunc, id string, generation uint64, req inference.Request) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("inference panicked", zap.String("session", shortID(id)), zap.Any("panic", r))
			m.fail(id, generation, fmt.Sprintf("inference panicked: %v", r))
		}
		cancel()
		if m.inferenceDone != nil {
			m.inferenceDone(id)
		}
	}()

	start := m.now()
	result, err := m.provider.Infer(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			m.logger.Info("analysis cancelled", zap.String("session", shortID(id)), zap.Uint64("generation", generation))
			return
		}
		m.logger.Error("analysis failed", zap.String("session", shortID(id)), zap.Error(err))
		m.fail(id, generation, err.Error())
		return
	}

	snap, ok := m.commit(id, generation, result)
	if !ok {
		m.logger.Info("discarding stale result",
			zap.String("session", shortID(id)),
			zap.Uint64("generation", generation))
		return
	}

	m.logger.Info("analysis complete",
		zap.String("session", shortID(id)),
		zap.String("model", result.Model),
		zap.Duration("elapsed", m.now().Sub(start)))
	m.record(snap)
}

// commit publishes a result only if the session still holds the file the
// inference was started for.
func (m *Manager) commit(id string, generation uint64, result *models.AnalysisResult) (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok || state.snapshot.Generation != generation || state.snapshot.Status != models.SessionStatusProcessing {
		return nil, false
	}

	next := *state.snapshot
	next.Status = models.SessionStatusComplete
	next.Result = result
	next.UpdatedAt = m.now()
	state.cancel = nil
	m.publishLocked(state, &next)
	return &next, true
}

func (m *Manager) fail(id string, generation uint64, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok || state.snapshot.Generation != generation || state.snapshot.Status != models.SessionStatusProcessing {
		return
	}

	next := *state.snapshot
	next.Status = models.SessionStatusError
	next.Error = reason
	next.UpdatedAt = m.now()
	state.cancel = nil
	m.publishLocked(state, &next)
}

func (m *Manager) record(snap *models.Session) {
	if m.recorder == nil {
		return
	}

	entry := models.HistoryEntry{
		SessionID:   snap.ID,
		FileName:    snap.File.Name,
		FileKind:    snap.File.Kind,
		FileSize:    snap.File.Size,
		Model:       snap.Result.Model,
		CompletedAt: snap.UpdatedAt,
	}
	if pred, ok := snap.Result.TopPrediction(); ok {
		entry.TopPrediction = pred.Class
		entry.TopConfidence = pred.Confidence
	}
	if snap.Statistics != nil {
		entry.TotalWords = snap.Statistics.TotalWords
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.recorder.Record(ctx, entry); err != nil {
		m.logger.Warn("failed to record history", zap.String("session", shortID(snap.ID)), zap.Error(err))
	}
}

// Subscribe streams snapshots of a session. The current snapshot is
// delivered first. The channel holds only the latest snapshot, so a slow
// reader skips intermediate states but never misses the newest one. The
// channel is closed when the session is deleted or cancel is called.
func (m *Manager) Subscribe(id string) (<-chan *models.Session, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}

	ch := make(chan *models.Session, 1)
	ch <- state.snapshot
	key := state.nextSub
	state.nextSub++
	state.subscribers[key] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if sub, ok := state.subscribers[key]; ok {
				delete(state.subscribers, key)
				close(sub)
			}
		})
	}
	return ch, cancel, nil
}

// Wait blocks until the session has no pending inference and returns that
// snapshot.
func (m *Manager) Wait(ctx context.Context, id string) (*models.Session, error) {
	ch, cancel, err := m.Subscribe(id)
	if err != nil {
		return nil, err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case snap, ok := <-ch:
			if !ok {
				return nil, ErrSessionNotFound
			}
			if snap.Finished() {
				return snap, nil
			}
		}
	}
}

// OpenFile returns the stored bytes of the file with fileID, as recorded in
// a snapshot of session id. Once a newer upload has replaced that file the
// bytes are gone and the error wraps storage.ErrNotFound; the bytes of a
// different upload are never returned.
func (m *Manager) OpenFile(id, fileID string) ([]byte, error) {
	if fileID == "" {
		return nil, models.ErrMissingInput
	}

	m.mu.RLock()
	state, ok := m.sessions[id]
	var current string
	if ok {
		current = state.storedID
	}
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if current != fileID {
		return nil, fmt.Errorf("%w: %s was replaced", storage.ErrNotFound, fileID)
	}

	rc, err := m.store.Open(fileID)
	if err != nil {
		return nil, fmt.Errorf("opening stored file: %w", err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("reading stored file: %w", err)
	}
	return buf.Bytes(), nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// publishLocked replaces the snapshot and notifies subscribers.
// Caller must hold m.mu.
func (m *Manager) publishLocked(state *sessionState, snap *models.Session) {
	state.snapshot = snap
	for _, ch := range state.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// dropLocked removes a session. Caller must hold m.mu.
func (m *Manager) dropLocked(id string, state *sessionState) {
	if state.cancel != nil {
		state.cancel()
		state.cancel = nil
	}
	for key, ch := range state.subscribers {
		delete(state.subscribers, key)
		close(ch)
	}
	delete(m.sessions, id)
}

func (m *Manager) deleteStored(storedID string) {
	if storedID == "" {
		return
	}
	if err := m.store.Delete(storedID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		m.logger.Warn("failed to delete stored file", zap.String("file", storedID), zap.Error(err))
	}
}

// evictForCapacityLocked drops the least recently used finished sessions
// until one more fits, and returns their stored file IDs for deletion
// outside the lock. Sessions with running inference are never evicted.
// Caller must hold m.mu.
func (m *Manager) evictForCapacityLocked() []string {
	if len(m.sessions) < m.maxSessions {
		return nil
	}

	type candidate struct {
		id    string
		state *sessionState
	}
	var finished []candidate
	for id, state := range m.sessions {
		if state.snapshot.Finished() {
			finished = append(finished, candidate{id, state})
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].state.lastAccessed.Before(finished[j].state.lastAccessed)
	})

	toFree := len(m.sessions) - m.maxSessions + 1
	var stored []string
	for i := 0; i < toFree && i < len(finished); i++ {
		c := finished[i]
		m.dropLocked(c.id, c.state)
		stored = append(stored, c.state.storedID)
		m.logger.Info("evicted session at capacity", zap.String("session", shortID(c.id)))
	}
	return stored
}

// CleanupOldSessions removes finished sessions idle for longer than maxAge,
// but keeps sessions that have been accessed within SessionKeepAliveWindow.
// It returns the number of removed sessions.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()

	now := m.now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	var stored []string
	for id, state := range m.sessions {
		if !state.snapshot.Finished() {
			continue
		}
		if state.lastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.lastAccessed.Before(cutoff) {
			m.dropLocked(id, state)
			stored = append(stored, state.storedID)
			m.logger.Info("cleaned up aged session",
				zap.String("session", shortID(id)),
				zap.Duration("idle", now.Sub(state.lastAccessed).Round(time.Second)))
		}
	}
	m.mu.Unlock()

	for _, id := range stored {
		m.deleteStored(id)
	}
	return len(stored)
}

// StartCleanup runs CleanupOldSessions every interval until ctx is done.
func (m *Manager) StartCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CleanupOldSessions(maxAge)
			}
		}
	}()
}

// Close cancels all running inference and drops every session.
func (m *Manager) Close() {
	m.mu.Lock()
	var stored []string
	for id, state := range m.sessions {
		m.dropLocked(id, state)
		stored = append(stored, state.storedID)
	}
	m.mu.Unlock()

	for _, id := range stored {
		m.deleteStored(id)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
