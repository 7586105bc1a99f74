package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/Tesudeix/Yuki/internal/availability"
)

type Repository interface {
	// ReserveSlot claims the slot and inserts b in one transaction, so a
	// failed insert releases the claim.
	ReserveSlot(ctx context.Context, key availability.SlotKey, b *Booking) error
	// Create inserts b on its own. It fills CreatedAt and UpdatedAt.
	Create(ctx context.Context, b *Booking) error
	// ListByOwner returns the newest bookings first with display names set.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]Booking, error)
	OrphanedReservations(ctx context.Context) ([]SlotRef, error)
	UnbackedBookings(ctx context.Context) ([]Booking, error)
}
