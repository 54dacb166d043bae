package journal

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"food-analyzer-go/internal/platform/config"
	"food-analyzer-go/internal/platform/storage"
)

// Driver identifiers supported by the journal.
const (
	DriverMemory   = config.JournalDriverMemory
	DriverSQLite   = config.JournalDriverSQLite
	DriverPostgres = config.JournalDriverPostgres
	DriverRedis    = config.JournalDriverRedis
	DriverNone     = config.JournalDriverNone
)

// Dependencies carries handles the caller already owns. When DB is nil the
// sql drivers open their own connection from the DSN.
type Dependencies struct {
	DB *gorm.DB
}

// New creates a journal store for the configured driver.
func New(cfg config.JournalConfig, deps Dependencies) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(cfg.Capacity), nil
	case DriverSQLite, DriverPostgres:
		db := deps.DB
		if db == nil {
			opened, err := storage.Open(driver, cfg.DSN)
			if err != nil {
				return nil, err
			}
			db = opened
		}
		return NewSQL(db, driver)
	case DriverRedis:
		return NewRedis(cfg.Redis, cfg.Capacity)
	case DriverNone:
		return noopStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported journal driver: %s", driver)
	}
}

// noopStore discards entries.
type noopStore struct{}

func (noopStore) Save(context.Context, *Entry) error { return nil }

func (noopStore) Get(context.Context, string) (*Entry, error) { return nil, ErrNotFound }

func (noopStore) List(context.Context, int) ([]*Entry, error) { return []*Entry{}, nil }

func (noopStore) Stats(context.Context) (Stats, error) { return Stats{Driver: DriverNone}, nil }

func (noopStore) Close() error { return nil }
