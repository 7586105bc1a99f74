package availability

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Tesudeix/Yuki/internal/db"
)

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const claimSlotQuery = `
	UPDATE availability_slots s
	SET reserved = TRUE
	FROM availability_days d
	WHERE s.day_id = d.id
	  AND d.resource_id = $1
	  AND d.location_id = $2
	  AND d.day = $3::date
	  AND s.slot_time = $4
	  AND s.reserved = FALSE
	RETURNING d.id`

// Claim runs the conditional reservation against q, which may be a
// transaction. The predicate on reserved = FALSE makes the database
// serialize racing claims: only one UPDATE can match.
func Claim(ctx context.Context, q sqlx.QueryerContext, key SlotKey) (uuid.UUID, error) {
	var dayID uuid.UUID
	err := sqlx.GetContext(ctx, q, &dayID, claimSlotQuery, key.ResourceID, key.LocationID, key.Date, key.Time)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, ErrNoOpenSlot
		}
		return uuid.Nil, err
	}
	return dayID, nil
}

func (r *postgresRepository) ClaimSlot(ctx context.Context, key SlotKey) (uuid.UUID, error) {
	dayID, err := Claim(ctx, r.db, key)
	if err != nil {
		return uuid.Nil, db.Classify(err)
	}
	return dayID, nil
}

func (r *postgresRepository) DayExists(ctx context.Context, resourceID, locationID uuid.UUID, date string) (bool, error) {
	ok, err := db.Exists(ctx, r.db, `
		SELECT EXISTS(
			SELECT 1 FROM availability_days
			WHERE resource_id = $1 AND location_id = $2 AND day = $3::date
		)`, resourceID, locationID, date)
	if err != nil {
		return false, db.Classify(err)
	}
	return ok, nil
}

type slotRow struct {
	DayID    uuid.UUID      `db:"day_id"`
	Day      string         `db:"day"`
	SlotTime sql.NullString `db:"slot_time"`
	Reserved sql.NullBool   `db:"reserved"`
}

func (r *postgresRepository) ListDays(ctx context.Context, resourceID, locationID uuid.UUID, from, to string) ([]Record, error) {
	records, err := listDays(ctx, r.db, resourceID, locationID, from, to)
	if err != nil {
		return nil, db.Classify(err)
	}
	return records, nil
}

func listDays(ctx context.Context, q sqlx.QueryerContext, resourceID, locationID uuid.UUID, from, to string) ([]Record, error) {
	var rows []slotRow
	err := sqlx.SelectContext(ctx, q, &rows, `
		SELECT d.id AS day_id, to_char(d.day, 'YYYY-MM-DD') AS day, s.slot_time, s.reserved
		FROM availability_days d
		LEFT JOIN availability_slots s ON s.day_id = d.id
		WHERE d.resource_id = $1
		  AND d.location_id = $2
		  AND d.day BETWEEN $3::date AND $4::date
		ORDER BY d.day, s.position`, resourceID, locationID, from, to)
	if err != nil {
		return nil, err
	}

	records := []Record{}
	for _, row := range rows {
		if n := len(records); n == 0 || records[n-1].ID != row.DayID {
			records = append(records, Record{
				ID:         row.DayID,
				ResourceID: resourceID,
				LocationID: locationID,
				Date:       row.Day,
				Slots:      []Slot{},
			})
		}
		if row.SlotTime.Valid {
			last := &records[len(records)-1]
			last.Slots = append(last.Slots, Slot{Time: row.SlotTime.String, Reserved: row.Reserved.Bool})
		}
	}
	return records, nil
}

func (r *postgresRepository) SeedDay(ctx context.Context, resourceID, locationID uuid.UUID, date string, times []string) (*Record, int, error) {
	var (
		record *Record
		added  int
	)

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var dayID uuid.UUID
		err := tx.GetContext(ctx, &dayID, `
			INSERT INTO availability_days (id, resource_id, location_id, day)
			VALUES ($1, $2, $3, $4::date)
			ON CONFLICT (resource_id, location_id, day) DO UPDATE SET resource_id = EXCLUDED.resource_id
			RETURNING id`, uuid.New(), resourceID, locationID, date)
		if err != nil {
			return err
		}

		for _, t := range times {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO availability_slots (day_id, slot_time, position)
				VALUES ($1, $2, (SELECT COALESCE(MAX(position), -1) + 1 FROM availability_slots WHERE day_id = $1))
				ON CONFLICT (day_id, slot_time) DO NOTHING`, dayID, t)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			added += int(n)
		}

		records, err := listDays(ctx, tx, resourceID, locationID, date, date)
		if err != nil {
			return err
		}
		if len(records) != 1 {
			return errors.New("seeded day not found after insert")
		}
		record = &records[0]
		return nil
	})
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, 0, ErrUnknownReference
		}
		return nil, 0, db.Classify(err)
	}

	return record, added, nil
}
