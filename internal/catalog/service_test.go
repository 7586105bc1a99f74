package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Tesudeix/Yuki/internal/apperr"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetLocation(ctx context.Context, id uuid.UUID) (*Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Location), args.Error(1)
}

func (m *MockRepository) GetResource(ctx context.Context, id uuid.UUID) (*Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Resource), args.Error(1)
}

func (m *MockRepository) ResourceServesLocation(ctx context.Context, resourceID, locationID uuid.UUID) (bool, error) {
	args := m.Called(ctx, resourceID, locationID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListLocations(ctx context.Context) ([]Location, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Location), args.Error(1)
}

func (m *MockRepository) ListResources(ctx context.Context, locationID *uuid.UUID) ([]Resource, error) {
	args := m.Called(ctx, locationID)
	return args.Get(0).([]Resource), args.Error(1)
}

func (m *MockRepository) CreateLocation(ctx context.Context, name, address string) (*Location, error) {
	args := m.Called(ctx, name, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Location), args.Error(1)
}

func (m *MockRepository) CreateResource(ctx context.Context, name, kind string, locationIDs []uuid.UUID) (*Resource, error) {
	args := m.Called(ctx, name, kind, locationIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Resource), args.Error(1)
}

func (m *MockRepository) EnsureLocation(ctx context.Context, name, address string) (*Location, error) {
	args := m.Called(ctx, name, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Location), args.Error(1)
}

func (m *MockRepository) EnsureResource(ctx context.Context, name, kind string, locationIDs []uuid.UUID) (*Resource, error) {
	args := m.Called(ctx, name, kind, locationIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Resource), args.Error(1)
}

func TestService_ResolveResourceAtLocation(t *testing.T) {
	locID := uuid.New()
	resID := uuid.New()
	activeLoc := &Location{ID: locID, Name: "Downtown", Active: true}
	activeRes := &Resource{ID: resID, Name: "Aiko", Active: true}

	tests := []struct {
		name      string
		setupMock func(*MockRepository)
		wantErr   error
	}{
		{
			name: "resolved",
			setupMock: func(m *MockRepository) {
				m.On("GetLocation", mock.Anything, locID).Return(activeLoc, nil)
				m.On("GetResource", mock.Anything, resID).Return(activeRes, nil)
				m.On("ResourceServesLocation", mock.Anything, resID, locID).Return(true, nil)
			},
		},
		{
			name: "unknown location",
			setupMock: func(m *MockRepository) {
				m.On("GetLocation", mock.Anything, locID).Return(nil, ErrLocationNotFound)
			},
			wantErr: ErrLocationNotFound,
		},
		{
			name: "inactive location",
			setupMock: func(m *MockRepository) {
				m.On("GetLocation", mock.Anything, locID).Return(&Location{ID: locID, Active: false}, nil)
			},
			wantErr: ErrLocationNotFound,
		},
		{
			name: "unknown resource",
			setupMock: func(m *MockRepository) {
				m.On("GetLocation", mock.Anything, locID).Return(activeLoc, nil)
				m.On("GetResource", mock.Anything, resID).Return(nil, ErrResourceNotFound)
			},
			wantErr: ErrResourceNotAvailable,
		},
		{
			name: "inactive resource",
			setupMock: func(m *MockRepository) {
				m.On("GetLocation", mock.Anything, locID).Return(activeLoc, nil)
				m.On("GetResource", mock.Anything, resID).Return(&Resource{ID: resID, Active: false}, nil)
			},
			wantErr: ErrResourceNotAvailable,
		},
		{
			name: "resource serves another location",
			setupMock: func(m *MockRepository) {
				m.On("GetLocation", mock.Anything, locID).Return(activeLoc, nil)
				m.On("GetResource", mock.Anything, resID).Return(activeRes, nil)
				m.On("ResourceServesLocation", mock.Anything, resID, locID).Return(false, nil)
			},
			wantErr: ErrResourceNotAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMock(repo)

			res, loc, err := NewService(repo).ResolveResourceAtLocation(context.Background(), resID, locID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
				assert.Nil(t, res)
				assert.Nil(t, loc)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Aiko", res.Name)
				assert.Equal(t, "Downtown", loc.Name)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_ResolveResourceAtLocation_DatabaseDown(t *testing.T) {
	repo := new(MockRepository)
	down := apperr.New(apperr.KindServiceUnavailable, "database unavailable")
	repo.On("GetLocation", mock.Anything, mock.Anything).Return(nil, down)

	_, _, err := NewService(repo).ResolveResourceAtLocation(context.Background(), uuid.New(), uuid.New())

	assert.Equal(t, apperr.KindServiceUnavailable, apperr.KindOf(err))
}

func TestService_CreateResource(t *testing.T) {
	locA := uuid.New()
	locB := uuid.New()

	t.Run("defaults kind and drops duplicate locations", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateResource", mock.Anything, "Aiko", "artist", []uuid.UUID{locA, locB}).
			Return(&Resource{ID: uuid.New(), Name: "Aiko", Kind: "artist", LocationIDs: []uuid.UUID{locA, locB}}, nil)

		res, err := NewService(repo).CreateResource(context.Background(), CreateResourceRequest{
			Name:        " Aiko ",
			LocationIDs: []string{locA.String(), locB.String(), locA.String()},
		})

		require.NoError(t, err)
		assert.Equal(t, "artist", res.Kind)
		repo.AssertExpectations(t)
	})

	t.Run("malformed location id", func(t *testing.T) {
		repo := new(MockRepository)

		_, err := NewService(repo).CreateResource(context.Background(), CreateResourceRequest{
			Name:        "Aiko",
			LocationIDs: []string{"nope"},
		})

		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		repo.AssertNotCalled(t, "CreateResource", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := NewService(new(MockRepository)).CreateResource(context.Background(), CreateResourceRequest{
			Name:        "   ",
			LocationIDs: []string{locA.String()},
		})
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	})
}

func TestService_CreateLocation(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateLocation", mock.Anything, "Downtown", "1 Main St").
		Return(&Location{ID: uuid.New(), Name: "Downtown", Address: "1 Main St", Active: true}, nil)

	loc, err := NewService(repo).CreateLocation(context.Background(), CreateLocationRequest{Name: "Downtown ", Address: " 1 Main St"})

	require.NoError(t, err)
	assert.True(t, loc.Active)
	repo.AssertExpectations(t)
}
