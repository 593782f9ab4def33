package store

import (
	"context"

	"github.com/sells-group/cnpj-cli/internal/model"
)

// LookupFilter specifies criteria for listing lookup history.
type LookupFilter struct {
	Identifier string `json:"identifier,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for lookup history.
type Store interface {
	SaveLookup(ctx context.Context, result model.LookupResult) (*model.Lookup, error)
	GetLookup(ctx context.Context, id string) (*model.Lookup, error)
	ListLookups(ctx context.Context, filter LookupFilter) ([]model.Lookup, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
