package catalog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetLocation(ctx context.Context, id uuid.UUID) (*Location, error)
	GetResource(ctx context.Context, id uuid.UUID) (*Resource, error)
	ResourceServesLocation(ctx context.Context, resourceID, locationID uuid.UUID) (bool, error)
	ListLocations(ctx context.Context) ([]Location, error)
	// ListResources returns active resources, restricted to one location when locationID is non-nil.
	ListResources(ctx context.Context, locationID *uuid.UUID) ([]Resource, error)
	CreateLocation(ctx context.Context, name, address string) (*Location, error)
	CreateResource(ctx context.Context, name, kind string, locationIDs []uuid.UUID) (*Resource, error)
	// EnsureLocation and EnsureResource are idempotent by name.
	EnsureLocation(ctx context.Context, name, address string) (*Location, error)
	EnsureResource(ctx context.Context, name, kind string, locationIDs []uuid.UUID) (*Resource, error)
}
