package syncer

import (
	"context"

	"github.com/theo/glucolog/internal/remote"
)

// Gateway is the engine's view of the backend. The production implementation
// is remote.Client; tests substitute a fake that records calls.
type Gateway interface {
	CreateReading(ctx context.Context, r remote.Reading) (*remote.Reading, error)
	UpdateReading(ctx context.Context, r remote.Reading) (*remote.Reading, error)
	DeleteReading(ctx context.Context, backendID string) error
	ListReadings(ctx context.Context) ([]remote.Reading, error)
}
