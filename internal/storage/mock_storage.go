package storage

import (
	"sync"
	"time"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

// MockStorage implements Interface for testing. The Interface contract
// requires goroutine safety; the unified scan writes from four scanner
// goroutines at once, so every method takes the mutex. Configure the exported
// fields before handing the mock to concurrent code.
type MockStorage struct {
	mu sync.Mutex

	Accounts        []models.Account
	Recommendations map[models.Strategy][]models.Recommendation
	Alerts          []models.Alert

	RecommendationErr error
	AlertErr          error
	SaveErr           error

	Now func() time.Time
}

// NewMockStorage creates a new mock storage for testing.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		Recommendations: make(map[models.Strategy][]models.Recommendation),
		Now:             time.Now,
	}
}

// Ensure MockStorage implements Interface at compile time.
var _ Interface = (*MockStorage)(nil)

func (m *MockStorage) GetAccounts() []models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Accounts
}

func (m *MockStorage) GetAccount(id string) (models.Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.Accounts {
		if account.ID == id {
			return account, true
		}
	}
	return models.Account{}, false
}

func (m *MockStorage) AddRecommendation(rec models.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecommendationErr != nil {
		return m.RecommendationErr
	}
	if rec.Action == models.ActionNone {
		return ErrNoneAction
	}
	m.Recommendations[rec.Strategy] = append(m.Recommendations[rec.Strategy], rec)
	return nil
}

func (m *MockStorage) GetRecommendations(strategy models.Strategy, limit int) []models.Recommendation {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.Recommendations[strategy]
	if limit > 0 && limit < len(recs) {
		return recs[len(recs)-limit:]
	}
	return recs
}

func (m *MockStorage) CreateAlert(alert models.Alert) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AlertErr != nil {
		return false, m.AlertErr
	}
	cutoff := m.Now().Add(-AlertDedupWindow)
	for _, existing := range m.Alerts {
		if existing.CreatedAt.Before(cutoff) {
			continue
		}
		if existing.Symbol == alert.Symbol && existing.Action == alert.Action && existing.Type == alert.Type {
			return false, nil
		}
	}
	m.Alerts = append(m.Alerts, alert)
	return true, nil
}

func (m *MockStorage) GetAlerts(limit int) []models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > 0 && limit < len(m.Alerts) {
		return m.Alerts[len(m.Alerts)-limit:]
	}
	return m.Alerts
}

func (m *MockStorage) AcknowledgeAlert(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Alerts {
		if m.Alerts[i].ID == id {
			m.Alerts[i].Acknowledged = true
			return nil
		}
	}
	return ErrAlertNotFound
}

func (m *MockStorage) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SaveErr
}

func (m *MockStorage) Load() error { return nil }
