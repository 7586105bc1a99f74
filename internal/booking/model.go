package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/Tesudeix/Yuki/internal/catalog"
)

const (
	StatusConfirmed = "confirmed"
	// StatusCancelled is only ever set by administrative tooling.
	StatusCancelled = "cancelled"

	DefaultPageSize = 20
	maxNoteLength   = 500
)

type Booking struct {
	ID         uuid.UUID `db:"id"`
	OwnerID    uuid.UUID `db:"owner_id"`
	ResourceID uuid.UUID `db:"resource_id"`
	LocationID uuid.UUID `db:"location_id"`
	Date       string    `db:"day"`
	Time       string    `db:"slot_time"`
	Timeslot   string    `db:"timeslot"`
	Status     string    `db:"status"`
	Note       string    `db:"note"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`

	ResourceName string `db:"resource_name"`
	LocationName string `db:"location_name"`
}

type BookingResponse struct {
	ID        uuid.UUID   `json:"id"`
	OwnerID   uuid.UUID   `json:"owner_id"`
	Resource  catalog.Ref `json:"resource"`
	Location  catalog.Ref `json:"location"`
	Date      string      `json:"date" example:"2024-06-01"`
	Time      string      `json:"time" example:"10:00"`
	Timeslot  string      `json:"timeslot" example:"2024-06-01T10:00"`
	Status    string      `json:"status" example:"confirmed"`
	Note      string      `json:"note"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (b Booking) Response() BookingResponse {
	return BookingResponse{
		ID:        b.ID,
		OwnerID:   b.OwnerID,
		Resource:  catalog.Ref{ID: b.ResourceID, Name: b.ResourceName},
		Location:  catalog.Ref{ID: b.LocationID, Name: b.LocationName},
		Date:      b.Date,
		Time:      b.Time,
		Timeslot:  b.Timeslot,
		Status:    b.Status,
		Note:      b.Note,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type CreateBookingRequest struct {
	ResourceID string `json:"resourceId" binding:"required,uuid"`
	LocationID string `json:"locationId" binding:"required,uuid"`
	Date       string `json:"date" binding:"required,calendar_date" example:"2024-06-01"`
	Time       string `json:"time" binding:"required,clock_time" example:"10:00"`
	Note       string `json:"note" binding:"max=500"`
}

type CreateBookingResponse struct {
	Booking BookingResponse `json:"booking"`
}

type ListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// SlotRef identifies a slot in reports.
type SlotRef struct {
	ResourceID uuid.UUID `db:"resource_id" json:"resource_id"`
	LocationID uuid.UUID `db:"location_id" json:"location_id"`
	Date       string    `db:"day" json:"date"`
	Time       string    `db:"slot_time" json:"time"`
}

type ConsistencyReport struct {
	Consistent           bool              `json:"consistent"`
	OrphanedReservations []SlotRef         `json:"orphaned_reservations"`
	UnbackedBookings     []BookingResponse `json:"unbacked_bookings"`
	CheckedAt            time.Time         `json:"checked_at"`
}

// Event is the payload published for booking.confirmed and booking.orphaned.
type Event struct {
	Type       string    `json:"type"`
	BookingID  uuid.UUID `json:"booking_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	ResourceID uuid.UUID `json:"resource_id"`
	LocationID uuid.UUID `json:"location_id"`
	Timeslot   string    `json:"timeslot"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
