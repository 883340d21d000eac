package ports

import (
	"context"

	"github.com/maghraz/crm/internal/domain/entities"
)

// BoardRepository defines the interface for board document persistence.
// The document is always read and written whole; there are no partial
// updates and the last write observed wins.
type BoardRepository interface {
	// Load returns the persisted document. When no document exists yet the
	// repository initializes, persists and returns the default board
	// schema. Any other failure is returned as-is and is fatal to startup.
	Load(ctx context.Context) (*entities.BoardData, error)

	// Save overwrites the persisted document with the given snapshot.
	Save(ctx context.Context, board *entities.BoardData) error
}
