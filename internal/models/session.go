package models

import "time"

// SessionStatus represents the lifecycle state of an upload session.
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusRemoved SessionStatus = "removed"
)

// Session is the explicit interactive context for one uploaded file:
// the parsed dataset, the employee list and the current selection.
type Session struct {
	ID               string        `json:"id"`
	FileID           string        `json:"fileId"`
	FileName         string        `json:"fileName"`
	Status           SessionStatus `json:"status"`
	Employees        []string      `json:"employees"` // sorted for selection
	SelectedEmployee string        `json:"selectedEmployee,omitempty"`
	Stats            DatasetStats  `json:"stats"`
	Warnings         []Warning     `json:"warnings,omitempty"`
	HasQR            bool          `json:"hasQr"`
	ProcessingTimeMs int64         `json:"processingTimeMs,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// NewSession creates an active session summarizing ds.
// The first employee in sorted order is selected by default.
func NewSession(id string, file *FileInfo, ds *Dataset, now time.Time) *Session {
	s := &Session{
		ID:        id,
		Status:    SessionStatusActive,
		CreatedAt: now,
	}
	s.Load(file, ds, now)
	return s
}

// Load replaces the session's file summary and resets the selection.
func (s *Session) Load(file *FileInfo, ds *Dataset, now time.Time) {
	if file != nil {
		s.FileID = file.ID
		s.FileName = file.Name
	}
	s.Employees = ds.SortedEmployeeNames()
	if s.Employees == nil {
		s.Employees = []string{}
	}
	s.SelectedEmployee = ""
	if len(s.Employees) > 0 {
		s.SelectedEmployee = s.Employees[0]
	}
	s.Stats = ds.Stats()
	s.Warnings = nil
	if ds != nil {
		s.Warnings = ds.Warnings
	}
	s.HasQR = ds.HasColumn(ColumnQR)
	s.UpdatedAt = now
}
