package storage

import (
	"time"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

// AlertDedupWindow is the rolling window within which at most one alert per
// (symbol, action, type) may be created.
const AlertDedupWindow = 24 * time.Hour

// Interface defines the contract for scanner data persistence.
//
// Implementations must be safe for concurrent use - callers can assume all
// methods are goroutine-safe. The provided JSONStorage implementation uses
// sync.RWMutex to serialize access.
type Interface interface {
	// Portfolio, read-only input to the scanner core.
	GetAccounts() []models.Account
	GetAccount(id string) (models.Account, bool)

	// Recommendations, append-only, one logical collection per strategy.
	AddRecommendation(rec models.Recommendation) error
	GetRecommendations(strategy models.Strategy, limit int) []models.Recommendation

	// Alerts. CreateAlert performs the 24h dedup check and reports whether
	// the alert was actually written.
	CreateAlert(alert models.Alert) (bool, error)
	GetAlerts(limit int) []models.Alert
	AcknowledgeAlert(id string) error

	// Data persistence.
	Save() error
	Load() error
}

// NewStorage creates a new storage implementation (currently JSON-based).
func NewStorage(filepath string) (Interface, error) {
	return NewJSONStorage(filepath)
}

// Ensure JSONStorage implements Interface.
var _ Interface = (*JSONStorage)(nil)
