package storage

import "fmt"

// Drivers accepted by Open.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Store persists the user profile, the short memory and the window
// position. Each is an independent unit: saving one never touches another.
type Store interface {
	LoadProfile() (map[string]string, error)
	SaveProfile(map[string]string) error

	LoadMemory() ([]Exchange, error)
	SaveMemory([]Exchange) error

	// LoadPosition returns ErrNotFound when no position was ever saved.
	LoadPosition() (Position, error)
	SavePosition(Position) error

	Close() error
}

// InteractionStore is implemented by stores that keep an interaction log.
type InteractionStore interface {
	SaveInteraction(Interaction) error
	GetInteraction(id string) (Interaction, error)
	RecentInteractions(limit int) ([]Interaction, error)
}

// Open returns the Store for driver rooted at dataDir.
func Open(driver, dataDir string) (Store, error) {
	switch driver {
	case DriverJSON, "":
		s, err := OpenJSON(dataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		s, err := OpenSQLite(dataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
