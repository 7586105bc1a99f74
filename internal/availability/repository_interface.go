package availability

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// ListDays returns the stored records with from <= date <= to, ordered by
	// date, each with its slots in insertion order.
	ListDays(ctx context.Context, resourceID, locationID uuid.UUID, from, to string) ([]Record, error)
	// ClaimSlot flips one free slot to reserved in a single statement and
	// returns the id of its record, or ErrNoOpenSlot if nothing matched.
	ClaimSlot(ctx context.Context, key SlotKey) (uuid.UUID, error)
	DayExists(ctx context.Context, resourceID, locationID uuid.UUID, date string) (bool, error)
	// SeedDay creates the record if needed and appends the missing times.
	// Existing slots keep their reserved flag. It returns how many were added.
	SeedDay(ctx context.Context, resourceID, locationID uuid.UUID, date string, times []string) (*Record, int, error)
}
