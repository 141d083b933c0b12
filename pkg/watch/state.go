package watch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

const stateFileName = "watch_state.json"

// SeedState contains the last run information for a seed
type SeedState struct {
	LastRunTime    time.Time `json:"last_run_time"`
	LastRunSuccess bool      `json:"last_run_success"`
	PairsUploaded  int       `json:"pairs_uploaded"`
	PairsCleaned   int       `json:"pairs_cleaned"`
	ExportPath     string    `json:"export_path,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}

// WatchState contains the persistent state for the watch scheduler
type WatchState struct {
	Seeds     map[string]SeedState `json:"seeds"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// StateManager handles persisting and loading watch state
type StateManager struct {
	statePath string
	state     WatchState
	mu        sync.RWMutex
}

// NewStateManager creates a new state manager
func NewStateManager(stateDir string) *StateManager {
	return &StateManager{
		statePath: filepath.Join(stateDir, stateFileName),
		state:     WatchState{Seeds: make(map[string]SeedState)},
	}
}

// Load loads the state from disk. A missing file starts fresh.
func (m *StateManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.state = WatchState{Seeds: make(map[string]SeedState)}
			return nil
		}
		return fmt.Errorf("%w: reading state file: %w", utils.ErrFilesystem, err)
	}

	var loaded WatchState
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("%w: state file JSON: %w", utils.ErrParsing, err)
	}
	if loaded.Seeds == nil {
		loaded.Seeds = make(map[string]SeedState)
	}
	m.state = loaded
	return nil
}

// Save atomically writes the state to disk
func (m *StateManager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return utils.WriteFileAtomic(m.statePath, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// GetSeedState returns the state for a specific seed
func (m *StateManager) GetSeedState(seed string) (SeedState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.state.Seeds[seed]
	return state, ok
}

// UpdateSeedState records a finished run for seed
func (m *StateManager) UpdateSeedState(seed string, state SeedState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state.LastRunTime.IsZero() {
		state.LastRunTime = time.Now()
	}
	m.state.Seeds[seed] = state
}

// ShouldRun checks if a seed is due based on the interval
func (m *StateManager) ShouldRun(seed string, interval time.Duration) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.state.Seeds[seed]
	if !ok {
		return true
	}
	return time.Since(state.LastRunTime) >= interval
}

// GetNextRunTime returns when the seed should next run
func (m *StateManager) GetNextRunTime(seed string, interval time.Duration) time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.state.Seeds[seed]
	if !ok {
		return time.Now()
	}
	return state.LastRunTime.Add(interval)
}

// GetAllSeedStates returns a copy of all seed states
func (m *StateManager) GetAllSeedStates() map[string]SeedState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]SeedState, len(m.state.Seeds))
	for k, v := range m.state.Seeds {
		result[k] = v
	}
	return result
}
