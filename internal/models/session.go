// Package models contains domain types for the Transfer Learning Studio.
package models

import "time"

// SessionStatus represents the lifecycle stage of a session.
type SessionStatus string

const (
	SessionStatusEmpty      SessionStatus = "empty"
	SessionStatusReady      SessionStatus = "ready"
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusComplete   SessionStatus = "complete"
	SessionStatusError      SessionStatus = "error"
)

// Session is an immutable snapshot of one session. Transitions build a new
// value; a published snapshot is never modified.
type Session struct {
	ID         string          `json:"id"`
	Generation uint64          `json:"generation"`
	Status     SessionStatus   `json:"status"`
	File       *UploadedFile   `json:"file,omitempty"`
	Statistics *TextStatistics `json:"statistics,omitempty"`
	Table      *CSVTable       `json:"-"`
	Result     *AnalysisResult `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// NewSession creates an empty session snapshot.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Status:    SessionStatusEmpty,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Finished reports whether no inference is pending.
func (s *Session) Finished() bool {
	return s.Status != SessionStatusProcessing
}
