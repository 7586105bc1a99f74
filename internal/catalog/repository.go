package catalog

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

const (
	locationColumns = `id, name, address, active, created_at`
	resourceColumns = `id, name, kind, active, created_at`
)

func (r *postgresRepository) GetLocation(ctx context.Context, id uuid.UUID) (*Location, error) {
	var loc Location
	err := r.db.GetContext(ctx, &loc, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, db.Classify(err)
	}
	return &loc, nil
}

func (r *postgresRepository) GetResource(ctx context.Context, id uuid.UUID) (*Resource, error) {
	var res Resource
	err := r.db.GetContext(ctx, &res, `SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, db.Classify(err)
	}

	if err := r.loadLocationIDs(ctx, r.db, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepository) loadLocationIDs(ctx context.Context, q sqlx.QueryerContext, res *Resource) error {
	ids := []uuid.UUID{}
	err := sqlx.SelectContext(ctx, q, &ids,
		`SELECT location_id FROM resource_locations WHERE resource_id = $1 ORDER BY location_id`, res.ID)
	if err != nil {
		return db.Classify(err)
	}
	res.LocationIDs = ids
	return nil
}

func (r *postgresRepository) ResourceServesLocation(ctx context.Context, resourceID, locationID uuid.UUID) (bool, error) {
	ok, err := db.Exists(ctx, r.db,
		`SELECT EXISTS(SELECT 1 FROM resource_locations WHERE resource_id = $1 AND location_id = $2)`,
		resourceID, locationID)
	if err != nil {
		return false, db.Classify(err)
	}
	return ok, nil
}

func (r *postgresRepository) ListLocations(ctx context.Context) ([]Location, error) {
	locations := []Location{}
	err := r.db.SelectContext(ctx, &locations,
		`SELECT `+locationColumns+` FROM locations WHERE active = TRUE ORDER BY name`)
	if err != nil {
		return nil, db.Classify(err)
	}
	return locations, nil
}

func (r *postgresRepository) ListResources(ctx context.Context, locationID *uuid.UUID) ([]Resource, error) {
	resources := []Resource{}

	var err error
	if locationID == nil {
		err = r.db.SelectContext(ctx, &resources,
			`SELECT `+resourceColumns+` FROM resources WHERE active = TRUE ORDER BY name`)
	} else {
		err = r.db.SelectContext(ctx, &resources, `
			SELECT r.id, r.name, r.kind, r.active, r.created_at
			FROM resources r
			JOIN resource_locations rl ON rl.resource_id = r.id
			WHERE r.active = TRUE AND rl.location_id = $1
			ORDER BY r.name`, *locationID)
	}
	if err != nil {
		return nil, db.Classify(err)
	}

	for i := range resources {
		if err := r.loadLocationIDs(ctx, r.db, &resources[i]); err != nil {
			return nil, err
		}
	}
	return resources, nil
}

func (r *postgresRepository) CreateLocation(ctx context.Context, name, address string) (*Location, error) {
	var loc Location
	err := r.db.GetContext(ctx, &loc, `
		INSERT INTO locations (id, name, address)
		VALUES ($1, $2, $3)
		RETURNING `+locationColumns, uuid.New(), name, address)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, db.Classify(err)
	}
	return &loc, nil
}

func (r *postgresRepository) CreateResource(ctx context.Context, name, kind string, locationIDs []uuid.UUID) (*Resource, error) {
	var res Resource
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &res, `
			INSERT INTO resources (id, name, kind)
			VALUES ($1, $2, $3)
			RETURNING `+resourceColumns, uuid.New(), name, kind)
		if err != nil {
			return err
		}
		return linkLocations(ctx, tx, res.ID, locationIDs)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, db.Classify(err)
	}

	res.LocationIDs = locationIDs
	return &res, nil
}

func (r *postgresRepository) EnsureLocation(ctx context.Context, name, address string) (*Location, error) {
	var loc Location
	err := r.db.GetContext(ctx, &loc, `
		INSERT INTO locations (id, name, address)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING `+locationColumns, uuid.New(), name, address)
	if err != nil {
		return nil, db.Classify(err)
	}
	return &loc, nil
}

func (r *postgresRepository) EnsureResource(ctx context.Context, name, kind string, locationIDs []uuid.UUID) (*Resource, error) {
	var res Resource
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &res, `
			INSERT INTO resources (id, name, kind)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING `+resourceColumns, uuid.New(), name, kind)
		if err != nil {
			return err
		}
		if err := linkLocations(ctx, tx, res.ID, locationIDs); err != nil {
			return err
		}
		return r.loadLocationIDs(ctx, tx, &res)
	})
	if err != nil {
		return nil, db.Classify(err)
	}
	return &res, nil
}

func linkLocations(ctx context.Context, tx *sqlx.Tx, resourceID uuid.UUID, locationIDs []uuid.UUID) error {
	for _, locationID := range locationIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO resource_locations (resource_id, location_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, resourceID, locationID)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrLocationNotFound
			}
			return err
		}
	}
	return nil
}
