// Package stats keeps a small ledger that outlives viewer sessions: the space
// recovered by deletions seen while nestmap was open, and the last scan of
// every root.
package stats

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Root is what is remembered about one scanned directory
type Root struct {
	Recovered int64     `json:"recovered"`
	LastScan  time.Time `json:"last_scan"`
	LastSize  int64     `json:"last_size"`
}

// Stats is the on-disk form of the ledger
type Stats struct {
	Recovered int64           `json:"recovered"`
	Roots     map[string]Root `json:"roots,omitempty"`
}

// Manager loads the ledger and writes it back, debouncing saves so a burst
// of deletions costs one write
type Manager struct {
	path         string
	stats        Stats
	mu           sync.RWMutex
	dirty        bool
	saveTimer    *time.Timer
	saveDuration time.Duration
}

// NewManager creates a manager for the ledger at path
func NewManager(path string) *Manager {
	return &Manager{
		path:         path,
		stats:        Stats{Roots: map[string]Root{}},
		saveDuration: 2 * time.Second,
	}
}

// DefaultPath returns the ledger location next to the config file
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "nestmap-stats.json"
	}
	return filepath.Join(dir, "nestmap", "stats.json")
}

// Load reads the ledger. A missing file starts an empty one.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		m.stats = Stats{Roots: map[string]Root{}}
		return nil
	}
	if err != nil {
		return err
	}

	var s Stats
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s.Roots == nil {
		s.Roots = map[string]Root{}
	}
	m.stats = s
	return nil
}

// Save writes the ledger immediately
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

// saveLocked writes the ledger; the caller holds mu
func (m *Manager) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m.stats, "", "  ")
	if err != nil {
		return err
	}
	m.dirty = false
	return os.WriteFile(m.path, data, 0644)
}

// Recovered returns the bytes recovered across all roots and sessions
func (m *Manager) Recovered() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats.Recovered
}

// Root returns what is known about a scanned directory
func (m *Manager) Root(path string) (Root, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.stats.Roots[path]
	return r, ok
}

// RecordScan remembers the size of a finished scan
func (m *Manager) RecordScan(path string, size int64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.stats.Roots[path]
	r.LastScan = at
	r.LastSize = size
	m.stats.Roots[path] = r
	m.scheduleSaveLocked()
}

// AddRecovered adds bytes freed below root
func (m *Manager) AddRecovered(root string, bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.stats.Roots[root]
	r.Recovered += bytes
	m.stats.Roots[root] = r
	m.stats.Recovered += bytes
	m.scheduleSaveLocked()
}

func (m *Manager) scheduleSaveLocked() {
	m.dirty = true
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	m.saveTimer = time.AfterFunc(m.saveDuration, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.dirty {
			_ = m.saveLocked() // background save, Close reports errors
		}
	})
}

// Close writes any pending changes
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveTimer != nil {
		m.saveTimer.Stop()
		m.saveTimer = nil
	}
	if m.dirty {
		return m.saveLocked()
	}
	return nil
}
