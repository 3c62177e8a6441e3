package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/username/holiday-console/pkg/dateutil"
	"go.uber.org/zap"
)

// Session is the user's current branch and year selection.
// An empty BranchID is the "all branches" pseudo-selection.
type Session struct {
	BranchID string `json:"branch_id"`
	Year     int    `json:"year"`
}

// HasBranch reports whether a concrete branch is selected
func (s Session) HasBranch() bool {
	return s.BranchID != ""
}

// state is the on-disk form of the last selection
type state struct {
	Session
	UpdatedAt string `json:"updated_at"`
}

// Manager remembers the selection between runs in a JSON state file
type Manager struct {
	stateFile string
	session   Session
	loaded    bool
	logger    *zap.Logger
}

// NewManager creates a session manager. The year defaults to the current one.
func NewManager(stateFile string, logger *zap.Logger) *Manager {
	return &Manager{
		stateFile: stateFile,
		session:   Session{Year: dateutil.Today().Year()},
		logger:    logger,
	}
}

// Load reads the state file. A missing file keeps the defaults.
func (m *Manager) Load() error {
	if m.stateFile == "" {
		return nil
	}

	data, err := os.ReadFile(m.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			// Created on first save
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}

	if st.Year != 0 {
		m.session.Year = st.Year
	}
	m.session.BranchID = st.BranchID
	m.loaded = true

	m.logger.Debug("Session loaded",
		zap.String("branch_id", m.session.BranchID),
		zap.Int("year", m.session.Year))

	return nil
}

// Loaded reports whether a saved selection was read from the state file.
// An empty saved branch still counts: it is the "all branches" choice.
func (m *Manager) Loaded() bool {
	return m.loaded
}

// Save writes the current selection to the state file
func (m *Manager) Save() error {
	if m.stateFile == "" {
		return nil
	}

	data, err := json.MarshalIndent(state{
		Session:   m.session,
		UpdatedAt: time.Now().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if dir := filepath.Dir(m.stateFile); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	if err := os.WriteFile(m.stateFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	m.logger.Info("Session saved",
		zap.String("branch_id", m.session.BranchID),
		zap.Int("year", m.session.Year))

	return nil
}

// Current returns the current selection
func (m *Manager) Current() Session {
	return m.session
}

// Override replaces fields that are set (non-empty branch, non-zero year)
// without persisting them. Used for per-command flags.
func (m *Manager) Override(branchID string, year int) {
	if branchID != "" {
		m.session.BranchID = branchID
	}
	if year != 0 {
		m.session.Year = year
	}
}

// Set replaces the selection and saves it
func (m *Manager) Set(s Session) error {
	m.session = s
	return m.Save()
}
