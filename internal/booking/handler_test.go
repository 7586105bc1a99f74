package booking

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Tesudeix/Yuki/internal/api"
	"github.com/Tesudeix/Yuki/internal/apperr"
	"github.com/Tesudeix/Yuki/internal/auth"
	"github.com/Tesudeix/Yuki/internal/catalog"
)

const testSecret = "test-secret"

type MockService struct {
	mock.Mock
}

func (m *MockService) Book(ctx context.Context, ownerID uuid.UUID, req CreateBookingRequest) (*BookingResponse, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BookingResponse), args.Error(1)
}

func (m *MockService) ListForOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]BookingResponse, error) {
	args := m.Called(ctx, ownerID, limit)
	return args.Get(0).([]BookingResponse), args.Error(1)
}

func (m *MockService) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ConsistencyReport), args.Error(1)
}

func setupRouter(t *testing.T, svc Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, api.RegisterValidators())

	h := NewHandler(svc)
	r := gin.New()
	authed := r.Group("/", auth.AuthMiddleware(testSecret))
	authed.POST("/bookings", h.Book)
	authed.GET("/bookings/mine", h.ListMine)
	authed.GET("/admin/bookings/consistency", auth.RequireRole("admin"), h.Consistency)
	return r
}

func bearer(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token, err := auth.Issue(auth.AccessToken, auth.Identity{UserID: userID, Email: "ana@example.com", Role: role}, testSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func postBooking(t *testing.T, r http.Handler, userID uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, userID, "member"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Book(t *testing.T) {
	owner := uuid.New()
	resourceID, locationID := uuid.New(), uuid.New()
	req := CreateBookingRequest{
		ResourceID: resourceID.String(),
		LocationID: locationID.String(),
		Date:       "2024-06-01",
		Time:       "10:00",
	}

	svc := new(MockService)
	svc.On("Book", mock.Anything, owner, req).Return(&BookingResponse{
		ID:       uuid.New(),
		OwnerID:  owner,
		Resource: catalog.Ref{ID: resourceID, Name: "Aiko"},
		Location: catalog.Ref{ID: locationID, Name: "Downtown"},
		Date:     "2024-06-01",
		Time:     "10:00",
		Timeslot: "2024-06-01T10:00",
		Status:   StatusConfirmed,
	}, nil)

	body := `{"resourceId":"` + resourceID.String() + `","locationId":"` + locationID.String() + `","date":"2024-06-01","time":"10:00"}`
	w := postBooking(t, setupRouter(t, svc), owner, body)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"timeslot":"2024-06-01T10:00"`)
	assert.Contains(t, w.Body.String(), `"status":"confirmed"`)
	svc.AssertExpectations(t)
}

func TestHandler_Book_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"reserved", ErrSlotAlreadyReserved, http.StatusConflict, "slot_already_reserved"},
		{"no day", ErrDayNotFound, http.StatusNotFound, "not_found"},
		{"not recorded", apperr.Wrap(apperr.KindInternal, "booking could not be recorded", assert.AnError), http.StatusInternalServerError, "internal"},
		{"database down", apperr.New(apperr.KindServiceUnavailable, "database unavailable"), http.StatusServiceUnavailable, "service_unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Book", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			body := `{"resourceId":"` + uuid.NewString() + `","locationId":"` + uuid.NewString() + `","date":"2024-06-01","time":"10:00"}`
			w := postBooking(t, setupRouter(t, svc), uuid.New(), body)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"kind":"`+tt.kind+`"`)
			assert.NotContains(t, w.Body.String(), assert.AnError.Error())
		})
	}
}

func TestHandler_Book_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad time", `{"resourceId":"` + uuid.NewString() + `","locationId":"` + uuid.NewString() + `","date":"2024-06-01","time":"25:00"}`},
		{"bad date", `{"resourceId":"` + uuid.NewString() + `","locationId":"` + uuid.NewString() + `","date":"01-06-2024","time":"10:00"}`},
		{"bad resource", `{"resourceId":"aiko","locationId":"` + uuid.NewString() + `","date":"2024-06-01","time":"10:00"}`},
		{"missing fields", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			w := postBooking(t, setupRouter(t, svc), uuid.New(), tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"kind":"invalid_input"`)
			svc.AssertNotCalled(t, "Book", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Book_RequiresToken(t *testing.T) {
	svc := new(MockService)

	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	setupRouter(t, svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_ListMine(t *testing.T) {
	owner := uuid.New()

	t.Run("default limit", func(t *testing.T) {
		svc := new(MockService)
		svc.On("ListForOwner", mock.Anything, owner, DefaultPageSize).Return([]BookingResponse{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/bookings/mine", nil)
		req.Header.Set("Authorization", bearer(t, owner, "member"))
		w := httptest.NewRecorder()
		setupRouter(t, svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"bookings":[]}`, w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("explicit limit", func(t *testing.T) {
		svc := new(MockService)
		svc.On("ListForOwner", mock.Anything, owner, 5).Return([]BookingResponse{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/bookings/mine?limit=5", nil)
		req.Header.Set("Authorization", bearer(t, owner, "member"))
		w := httptest.NewRecorder()
		setupRouter(t, svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("non-integer limit", func(t *testing.T) {
		svc := new(MockService)

		req := httptest.NewRequest(http.MethodGet, "/bookings/mine?limit=all", nil)
		req.Header.Set("Authorization", bearer(t, owner, "member"))
		w := httptest.NewRecorder()
		setupRouter(t, svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Consistency(t *testing.T) {
	t.Run("admin", func(t *testing.T) {
		svc := new(MockService)
		svc.On("CheckConsistency", mock.Anything).Return(&ConsistencyReport{
			Consistent:           true,
			OrphanedReservations: []SlotRef{},
			UnbackedBookings:     []BookingResponse{},
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/admin/bookings/consistency", nil)
		req.Header.Set("Authorization", bearer(t, uuid.New(), "admin"))
		w := httptest.NewRecorder()
		setupRouter(t, svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"consistent":true`)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		svc := new(MockService)

		req := httptest.NewRequest(http.MethodGet, "/admin/bookings/consistency", nil)
		req.Header.Set("Authorization", bearer(t, uuid.New(), "member"))
		w := httptest.NewRecorder()
		setupRouter(t, svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "CheckConsistency", mock.Anything)
	})
}
