// Package storage persists scanner output (recommendations, alerts) and the
// account portfolio in a JSON file behind a small interface.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

// JSONStorage is a file-backed store with an in-memory working copy.
type JSONStorage struct {
	mu       sync.RWMutex
	filepath string
	data     *storageData
	now      func() time.Time
}

type storageData struct {
	Accounts        []models.Account                            `json:"accounts"`
	Recommendations map[models.Strategy][]models.Recommendation `json:"recommendations"`
	Alerts          []models.Alert                              `json:"alerts"`
	LastUpdated     time.Time                                   `json:"last_updated"`
}

// NewJSONStorage creates a store backed by the given file, loading existing
// data when the file is present.
func NewJSONStorage(filepath string) (*JSONStorage, error) {
	s := &JSONStorage{
		filepath: filepath,
		data: &storageData{
			Recommendations: make(map[models.Strategy][]models.Recommendation),
		},
		now: time.Now,
	}

	if _, err := os.Stat(filepath); err == nil {
		if err := s.Load(); err != nil {
			return nil, fmt.Errorf("loading storage: %w", err)
		}
	}
	return s, nil
}

// WithClock overrides the store clock (tests, dedup window control).
func (s *JSONStorage) WithClock(now func() time.Time) *JSONStorage {
	s.now = now
	return s
}

// Load reads the backing file into the working copy.
func (s *JSONStorage) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filepath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return err
	}
	if s.data.Recommendations == nil {
		s.data.Recommendations = make(map[models.Strategy][]models.Recommendation)
	}
	return nil
}

// Save writes the working copy to disk via a temp file and atomic rename.
func (s *JSONStorage) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *JSONStorage) saveLocked() error {
	s.data.LastUpdated = s.now()

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	tmpFile := s.filepath + ".tmp"
	if err := os.WriteFile(tmpFile, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpFile, s.filepath)
}

// GetAccounts returns every account in the portfolio.
func (s *JSONStorage) GetAccounts() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Account, len(s.data.Accounts))
	copy(out, s.data.Accounts)
	return out
}

// GetAccount returns one account by id.
func (s *JSONStorage) GetAccount(id string) (models.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.data.Accounts {
		if account.ID == id {
			return account, true
		}
	}
	return models.Account{}, false
}

// SetAccounts replaces the portfolio (import tooling, tests).
func (s *JSONStorage) SetAccounts(accounts []models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Accounts = accounts
	return s.saveLocked()
}

// AddRecommendation appends one recommendation to its strategy's collection.
func (s *JSONStorage) AddRecommendation(rec models.Recommendation) error {
	if rec.Action == models.ActionNone {
		return ErrNoneAction
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Recommendations[rec.Strategy] = append(s.data.Recommendations[rec.Strategy], rec)
	return s.saveLocked()
}

// GetRecommendations returns the newest recommendations for one strategy,
// capped at limit when limit > 0.
func (s *JSONStorage) GetRecommendations(strategy models.Strategy, limit int) []models.Recommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.data.Recommendations[strategy]
	if limit <= 0 || limit >= len(recs) {
		out := make([]models.Recommendation, len(recs))
		copy(out, recs)
		return out
	}
	out := make([]models.Recommendation, limit)
	copy(out, recs[len(recs)-limit:])
	return out
}

// CreateAlert writes the alert unless an alert with the same (symbol, action,
// type) exists within the dedup window. Returns whether it was written.
func (s *JSONStorage) CreateAlert(alert models.Alert) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-AlertDedupWindow)
	for i := len(s.data.Alerts) - 1; i >= 0; i-- {
		existing := &s.data.Alerts[i]
		if existing.CreatedAt.Before(cutoff) {
			// Alerts are append-ordered; everything earlier is outside the window.
			break
		}
		if existing.Symbol == alert.Symbol && existing.Action == alert.Action && existing.Type == alert.Type {
			return false, nil
		}
	}

	s.data.Alerts = append(s.data.Alerts, alert)
	if err := s.saveLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// GetAlerts returns the newest alerts, capped at limit when limit > 0.
func (s *JSONStorage) GetAlerts(limit int) []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alerts := s.data.Alerts
	if limit <= 0 || limit >= len(alerts) {
		out := make([]models.Alert, len(alerts))
		copy(out, alerts)
		return out
	}
	out := make([]models.Alert, limit)
	copy(out, alerts[len(alerts)-limit:])
	return out
}

// AcknowledgeAlert marks one alert acknowledged.
func (s *JSONStorage) AcknowledgeAlert(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Alerts {
		if s.data.Alerts[i].ID == id {
			s.data.Alerts[i].Acknowledged = true
			return s.saveLocked()
		}
	}
	return fmt.Errorf("%w: %s", ErrAlertNotFound, id)
}
