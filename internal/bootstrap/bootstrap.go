// Package bootstrap performs the start-up writes that must happen once per
// process: the admin account and, optionally, demo catalog data.
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Tesudeix/Yuki/internal/api"
	"github.com/Tesudeix/Yuki/internal/apperr"
	"github.com/Tesudeix/Yuki/internal/auth"
	"github.com/Tesudeix/Yuki/internal/availability"
	"github.com/Tesudeix/Yuki/internal/catalog"
	"github.com/Tesudeix/Yuki/internal/logger"
	"github.com/Tesudeix/Yuki/internal/user"
)

const (
	adminName = "Administrator"
	demoDays  = 7
)

var demoTimes = []string{"10:00", "11:00", "12:00", "14:00", "15:00", "16:00", "17:00"}

type UserStore interface {
	UpsertAdmin(ctx context.Context, name, email, passwordHash string) (*user.User, error)
}

type CatalogStore interface {
	EnsureLocation(ctx context.Context, name, address string) (*catalog.Location, error)
	EnsureResource(ctx context.Context, name, kind string, locationIDs []uuid.UUID) (*catalog.Resource, error)
}

type SlotSeeder interface {
	SeedDay(ctx context.Context, resourceID, locationID uuid.UUID, date string, times []string) (*availability.Record, int, error)
}

// DemoData lists what EnsureDemoData made sure exists.
type DemoData struct {
	Locations  []catalog.Location
	Resources  []catalog.Resource
	SeededDays int
	AddedSlots int
}

// Initializer collapses concurrent calls for the same key into one run.
// The key is released when the run returns, so a failed run can be retried.
type Initializer struct {
	group    singleflight.Group
	users    UserStore
	catalog  CatalogStore
	slots    SlotSeeder
	clock    availability.Clock
	location *time.Location
}

func New(users UserStore, catalog CatalogStore, slots SlotSeeder, clock availability.Clock, loc *time.Location) *Initializer {
	if clock == nil {
		clock = availability.SystemClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Initializer{
		users:    users,
		catalog:  catalog,
		slots:    slots,
		clock:    clock,
		location: loc,
	}
}

func (i *Initializer) EnsureAdmin(ctx context.Context, email, password string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.InvalidInput("admin email and password are required")
	}

	v, err, shared := i.group.Do("admin:"+email, func() (interface{}, error) {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		u, err := i.users.UpsertAdmin(ctx, adminName, email, hash)
		if err != nil {
			return nil, err
		}
		logger.Info("admin account ensured", "user_id", u.ID.String(), "email", email)
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("admin bootstrap joined an in-flight run", "email", email)
	}
	return v.(*user.User), nil
}

func (i *Initializer) EnsureDemoData(ctx context.Context) (*DemoData, error) {
	v, err, _ := i.group.Do("demo", func() (interface{}, error) {
		return i.seedDemo(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*DemoData), nil
}

func (i *Initializer) seedDemo(ctx context.Context) (*DemoData, error) {
	downtown, err := i.catalog.EnsureLocation(ctx, "Downtown", "1 Main St")
	if err != nil {
		return nil, fmt.Errorf("ensure location: %w", err)
	}
	riverside, err := i.catalog.EnsureLocation(ctx, "Riverside", "12 River Rd")
	if err != nil {
		return nil, fmt.Errorf("ensure location: %w", err)
	}

	aiko, err := i.catalog.EnsureResource(ctx, "Aiko", "artist", []uuid.UUID{downtown.ID, riverside.ID})
	if err != nil {
		return nil, fmt.Errorf("ensure resource: %w", err)
	}
	ren, err := i.catalog.EnsureResource(ctx, "Ren", "artist", []uuid.UUID{downtown.ID})
	if err != nil {
		return nil, fmt.Errorf("ensure resource: %w", err)
	}

	data := &DemoData{
		Locations: []catalog.Location{*downtown, *riverside},
		Resources: []catalog.Resource{*aiko, *ren},
	}

	pairs := []struct{ resourceID, locationID uuid.UUID }{
		{aiko.ID, downtown.ID},
		{aiko.ID, riverside.ID},
		{ren.ID, downtown.ID},
	}

	today := i.clock.Now().In(i.location)
	for d := 0; d < demoDays; d++ {
		date := today.AddDate(0, 0, d).Format(api.DateLayout)
		for _, p := range pairs {
			_, added, err := i.slots.SeedDay(ctx, p.resourceID, p.locationID, date, demoTimes)
			if err != nil {
				return nil, fmt.Errorf("seed %s: %w", date, err)
			}
			data.SeededDays++
			data.AddedSlots += added
		}
	}

	logger.Info("demo data ensured",
		"locations", len(data.Locations),
		"resources", len(data.Resources),
		"added_slots", data.AddedSlots,
	)
	return data, nil
}
