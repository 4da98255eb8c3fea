package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/reportkit/dashboard/internal/schema"
)

var (
	// ErrNotFound reports a missing snapshot id. Not an exception case;
	// handlers map it to a plain 404.
	ErrNotFound = errors.New("dashboard not found")

	// ErrInvalidState reports a payload the schema rejected at the
	// persistence boundary.
	ErrInvalidState = errors.New("invalid dashboard state")
)

// Store is the raw snapshot contract: whole-value writes keyed by id, last
// writer wins, no versioning and no merge. Implementations must never let a
// read observe a partial write.
type Store interface {
	Save(ctx context.Context, id string, state schema.DashboardState) error
	Load(ctx context.Context, id string) (schema.DashboardState, error)
	ListAll(ctx context.Context) ([]schema.DashboardState, error)
}

// Gateway validates against the full schema before delegating to a Store, so
// an invalid payload is rejected with no partial write regardless of backend.
type Gateway struct {
	store Store
}

func NewGateway(store Store) *Gateway {
	return &Gateway{store: store}
}

func (g *Gateway) Save(ctx context.Context, id string, state schema.DashboardState) error {
	if err := schema.Validate(state); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return g.store.Save(ctx, id, state)
}

func (g *Gateway) Load(ctx context.Context, id string) (schema.DashboardState, error) {
	return g.store.Load(ctx, id)
}

func (g *Gateway) ListAll(ctx context.Context) ([]schema.DashboardState, error) {
	return g.store.ListAll(ctx)
}
