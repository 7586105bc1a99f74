package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Tesudeix/Yuki/internal/api"
	"github.com/Tesudeix/Yuki/internal/apperr"
)

const defaultResourceKind = "artist"

var (
	ErrLocationNotFound     = apperr.NotFound("location not found")
	ErrResourceNotFound     = apperr.NotFound("resource not found")
	ErrResourceNotAvailable = apperr.NotFound("resource is not available at this location")
	ErrDuplicateName        = apperr.New(apperr.KindConflict, "name already in use")
)

type Service interface {
	GetLocation(ctx context.Context, id uuid.UUID) (*Location, error)
	GetResource(ctx context.Context, id uuid.UUID) (*Resource, error)
	// ResolveResourceAtLocation is an advisory check that the location exists
	// and the resource is active there. It does not guard concurrent writes.
	ResolveResourceAtLocation(ctx context.Context, resourceID, locationID uuid.UUID) (*Resource, *Location, error)
	ListLocations(ctx context.Context) ([]Location, error)
	ListResources(ctx context.Context, locationID *uuid.UUID) ([]Resource, error)
	CreateLocation(ctx context.Context, req CreateLocationRequest) (*Location, error)
	CreateResource(ctx context.Context, req CreateResourceRequest) (*Resource, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetLocation(ctx context.Context, id uuid.UUID) (*Location, error) {
	return s.repo.GetLocation(ctx, id)
}

func (s *service) GetResource(ctx context.Context, id uuid.UUID) (*Resource, error) {
	return s.repo.GetResource(ctx, id)
}

func (s *service) ResolveResourceAtLocation(ctx context.Context, resourceID, locationID uuid.UUID) (*Resource, *Location, error) {
	loc, err := s.repo.GetLocation(ctx, locationID)
	if err != nil {
		return nil, nil, err
	}
	if !loc.Active {
		return nil, nil, ErrLocationNotFound
	}

	res, err := s.repo.GetResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return nil, nil, ErrResourceNotAvailable
		}
		return nil, nil, err
	}
	if !res.Active {
		return nil, nil, ErrResourceNotAvailable
	}

	serves, err := s.repo.ResourceServesLocation(ctx, resourceID, locationID)
	if err != nil {
		return nil, nil, err
	}
	if !serves {
		return nil, nil, ErrResourceNotAvailable
	}

	return res, loc, nil
}

func (s *service) ListLocations(ctx context.Context) ([]Location, error) {
	return s.repo.ListLocations(ctx)
}

func (s *service) ListResources(ctx context.Context, locationID *uuid.UUID) ([]Resource, error) {
	return s.repo.ListResources(ctx, locationID)
}

func (s *service) CreateLocation(ctx context.Context, req CreateLocationRequest) (*Location, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.InvalidInput("name is required")
	}
	return s.repo.CreateLocation(ctx, name, strings.TrimSpace(req.Address))
}

func (s *service) CreateResource(ctx context.Context, req CreateResourceRequest) (*Resource, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.InvalidInput("name is required")
	}
	if len(req.LocationIDs) == 0 {
		return nil, apperr.InvalidInput("at least one location is required")
	}

	kind := strings.TrimSpace(req.Kind)
	if kind == "" {
		kind = defaultResourceKind
	}

	seen := make(map[uuid.UUID]struct{}, len(req.LocationIDs))
	locationIDs := make([]uuid.UUID, 0, len(req.LocationIDs))
	for _, raw := range req.LocationIDs {
		id, err := api.ParseID("locationId", raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		locationIDs = append(locationIDs, id)
	}

	return s.repo.CreateResource(ctx, name, kind, locationIDs)
}
