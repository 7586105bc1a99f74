package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Tesudeix/Yuki/internal/availability"
	"github.com/Tesudeix/Yuki/internal/db"
)

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const bookingSelect = `
	SELECT b.id, b.owner_id, b.resource_id, b.location_id,
	       to_char(b.day, 'YYYY-MM-DD') AS day, b.slot_time, b.timeslot,
	       b.status, b.note, b.created_at, b.updated_at,
	       r.name AS resource_name, l.name AS location_name
	FROM bookings b
	JOIN resources r ON r.id = b.resource_id
	JOIN locations l ON l.id = b.location_id`

func insert(ctx context.Context, q sqlx.QueryerContext, b *Booking) error {
	return q.QueryRowxContext(ctx, `
		INSERT INTO bookings (id, owner_id, resource_id, location_id, day, slot_time, timeslot, status, note)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		b.ID, b.OwnerID, b.ResourceID, b.LocationID, b.Date, b.Time, b.Timeslot, b.Status, b.Note,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *postgresRepository) ReserveSlot(ctx context.Context, key availability.SlotKey, b *Booking) error {
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := availability.Claim(ctx, tx, key); err != nil {
			return err
		}
		return insert(ctx, tx, b)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrSlotAlreadyReserved
		}
		return db.Classify(err)
	}
	return nil
}

func (r *postgresRepository) Create(ctx context.Context, b *Booking) error {
	if err := insert(ctx, r.db, b); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrSlotAlreadyReserved
		}
		return db.Classify(err)
	}
	return nil
}

func (r *postgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]Booking, error) {
	bookings := []Booking{}
	err := r.db.SelectContext(ctx, &bookings, bookingSelect+`
		WHERE b.owner_id = $1
		ORDER BY b.created_at DESC, b.id
		LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, db.Classify(err)
	}
	return bookings, nil
}

func (r *postgresRepository) OrphanedReservations(ctx context.Context) ([]SlotRef, error) {
	refs := []SlotRef{}
	err := r.db.SelectContext(ctx, &refs, `
		SELECT d.resource_id, d.location_id, to_char(d.day, 'YYYY-MM-DD') AS day, s.slot_time
		FROM availability_slots s
		JOIN availability_days d ON d.id = s.day_id
		WHERE s.reserved = TRUE
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.resource_id = d.resource_id
			  AND b.location_id = d.location_id
			  AND b.day = d.day
			  AND b.slot_time = s.slot_time
			  AND b.status = 'confirmed'
		  )
		ORDER BY d.day, s.slot_time`)
	if err != nil {
		return nil, db.Classify(err)
	}
	return refs, nil
}

func (r *postgresRepository) UnbackedBookings(ctx context.Context) ([]Booking, error) {
	bookings := []Booking{}
	err := r.db.SelectContext(ctx, &bookings, bookingSelect+`
		WHERE b.status = 'confirmed'
		  AND NOT EXISTS (
			SELECT 1 FROM availability_slots s
			JOIN availability_days d ON d.id = s.day_id
			WHERE d.resource_id = b.resource_id
			  AND d.location_id = b.location_id
			  AND d.day = b.day
			  AND s.slot_time = b.slot_time
			  AND s.reserved = TRUE
		  )
		ORDER BY b.created_at`)
	if err != nil {
		return nil, db.Classify(err)
	}
	return bookings, nil
}
