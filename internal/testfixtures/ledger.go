// Package testfixtures holds in-memory stand-ins for the Postgres
// repositories. Ledger serializes every operation behind one mutex, which
// gives its slot claim the same per-row atomicity the database provides.
package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tesudeix/Yuki/internal/availability"
	"github.com/Tesudeix/Yuki/internal/booking"
	"github.com/Tesudeix/Yuki/internal/catalog"
)

type dayKey struct {
	resourceID uuid.UUID
	locationID uuid.UUID
	date       string
}

type day struct {
	id    uuid.UUID
	slots []availability.Slot
}

type Ledger struct {
	mu sync.Mutex

	locations map[uuid.UUID]catalog.Location
	resources map[uuid.UUID]catalog.Resource
	days      map[dayKey]*day
	bookings  []booking.Booking
	timeslots map[string]struct{}

	insertErr error
	down      error
	epoch     time.Time
	seq       int
}

var (
	_ catalog.Repository      = (*Ledger)(nil)
	_ availability.Repository = (*Ledger)(nil)
	_ booking.Repository      = (*Ledger)(nil)
)

func NewLedger() *Ledger {
	return &Ledger{
		locations: map[uuid.UUID]catalog.Location{},
		resources: map[uuid.UUID]catalog.Resource{},
		days:      map[dayKey]*day{},
		timeslots: map[string]struct{}{},
		epoch:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// FailBookingInserts makes every booking insert return err until cleared with nil.
func (l *Ledger) FailBookingInserts(err error) {
	l.mu.Lock()
	l.insertErr = err
	l.mu.Unlock()
}

// SetUnavailable makes every operation return err until cleared with nil.
func (l *Ledger) SetUnavailable(err error) {
	l.mu.Lock()
	l.down = err
	l.mu.Unlock()
}

func (l *Ledger) tick() time.Time {
	l.seq++
	return l.epoch.Add(time.Duration(l.seq) * time.Millisecond)
}

// AddLocation and AddResource seed the catalog directly.
func (l *Ledger) AddLocation(name string) catalog.Location {
	l.mu.Lock()
	defer l.mu.Unlock()

	loc := catalog.Location{ID: uuid.New(), Name: name, Active: true, CreatedAt: l.tick()}
	l.locations[loc.ID] = loc
	return loc
}

func (l *Ledger) AddResource(name string, locationIDs ...uuid.UUID) catalog.Resource {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := catalog.Resource{ID: uuid.New(), Name: name, Kind: "artist", Active: true, CreatedAt: l.tick(), LocationIDs: locationIDs}
	l.resources[res.ID] = res
	return res
}

func (l *Ledger) SetResourceActive(id uuid.UUID, active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := l.resources[id]
	res.Active = active
	l.resources[id] = res
}

// ReservedCount reports how many slots of one record are reserved.
func (l *Ledger) ReservedCount(resourceID, locationID uuid.UUID, date string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, ok := l.days[dayKey{resourceID, locationID, date}]
	if !ok {
		return 0
	}
	n := 0
	for _, s := range d.slots {
		if s.Reserved {
			n++
		}
	}
	return n
}

func (l *Ledger) Bookings() []booking.Booking {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]booking.Booking(nil), l.bookings...)
}

// catalog.Repository

func (l *Ledger) GetLocation(_ context.Context, id uuid.UUID) (*catalog.Location, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return nil, l.down
	}

	loc, ok := l.locations[id]
	if !ok {
		return nil, catalog.ErrLocationNotFound
	}
	return &loc, nil
}

func (l *Ledger) GetResource(_ context.Context, id uuid.UUID) (*catalog.Resource, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return nil, l.down
	}

	res, ok := l.resources[id]
	if !ok {
		return nil, catalog.ErrResourceNotFound
	}
	return &res, nil
}

func (l *Ledger) ResourceServesLocation(_ context.Context, resourceID, locationID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return false, l.down
	}

	for _, id := range l.resources[resourceID].LocationIDs {
		if id == locationID {
			return true, nil
		}
	}
	return false, nil
}

func (l *Ledger) ListLocations(_ context.Context) ([]catalog.Location, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return nil, l.down
	}

	out := []catalog.Location{}
	for _, loc := range l.locations {
		if loc.Active {
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (l *Ledger) ListResources(_ context.Context, locationID *uuid.UUID) ([]catalog.Resource, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return nil, l.down
	}

	out := []catalog.Resource{}
	for _, res := range l.resources {
		if !res.Active {
			continue
		}
		if locationID != nil && !contains(res.LocationIDs, *locationID) {
			continue
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (l *Ledger) CreateLocation(_ context.Context, name, address string) (*catalog.Location, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return nil, l.down
	}

	for _, loc := range l.locations {
		if loc.Name == name {
			return nil, catalog.ErrDuplicateName
		}
	}
	loc := catalog.Location{ID: uuid.New(), Name: name, Address: address, Active: true, CreatedAt: l.tick()}
	l.locations[loc.ID] = loc
	return &loc, nil
}

func (l *Ledger) CreateResource(_ context.Context, name, kind string, locationIDs []uuid.UUID) (*catalog.Resource, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return nil, l.down
	}

	for _, res := range l.resources {
		if res.Name == name {
			return nil, catalog.ErrDuplicateName
		}
	}
	for _, id := range locationIDs {
		if _, ok := l.locations[id]; !ok {
			return nil, catalog.ErrLocationNotFound
		}
	}
	res := catalog.Resource{ID: uuid.New(), Name: name, Kind: kind, Active: true, CreatedAt: l.tick(), LocationIDs: locationIDs}
	l.resources[res.ID] = res
	return &res, nil
}

func (l *Ledger) EnsureLocation(ctx context.Context, name, address string) (*catalog.Location, error) {
	l.mu.Lock()
	for _, loc := range l.locations {
		if loc.Name == name {
			l.mu.Unlock()
			return &loc, nil
		}
	}
	l.mu.Unlock()
	return l.CreateLocation(ctx, name, address)
}

func (l *Ledger) EnsureResource(ctx context.Context, name, kind string, locationIDs []uuid.UUID) (*catalog.Resource, error) {
	l.mu.Lock()
	for id, res := range l.resources {
		if res.Name == name {
			for _, locID := range locationIDs {
				if !contains(res.LocationIDs, locID) {
					res.LocationIDs = append(res.LocationIDs, locID)
				}
			}
			l.resources[id] = res
			l.mu.Unlock()
			return &res, nil
		}
	}
	l.mu.Unlock()
	return l.CreateResource(ctx, name, kind, locationIDs)
}

// availability.Repository

func (l *Ledger) ListDays(_ context.Context, resourceID, locationID uuid.UUID, from, to string) ([]availability.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return nil, l.down
	}

	out := []availability.Record{}
	for k, d := range l.days {
		if k.resourceID != resourceID || k.locationID != locationID || k.date < from || k.date > to {
			continue
		}
		out = append(out, availability.Record{
			ID:         d.id,
			ResourceID: resourceID,
			LocationID: locationID,
			Date:       k.date,
			Slots:      append([]availability.Slot{}, d.slots...),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// claim flips a free slot. Callers hold l.mu.
func (l *Ledger) claim(key availability.SlotKey) (*day, int, bool) {
	d, ok := l.days[dayKey{key.ResourceID, key.LocationID, key.Date}]
	if !ok {
		return nil, 0, false
	}
	for i := range d.slots {
		if d.slots[i].Time == key.Time && !d.slots[i].Reserved {
			d.slots[i].Reserved = true
			return d, i, true
		}
	}
	return nil, 0, false
}

func (l *Ledger) ClaimSlot(_ context.Context, key availability.SlotKey) (uuid.UUID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return uuid.Nil, l.down
	}

	d, _, ok := l.claim(key)
	if !ok {
		return uuid.Nil, availability.ErrNoOpenSlot
	}
	return d.id, nil
}

func (l *Ledger) DayExists(_ context.Context, resourceID, locationID uuid.UUID, date string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return false, l.down
	}

	_, ok := l.days[dayKey{resourceID, locationID, date}]
	return ok, nil
}

func (l *Ledger) SeedDay(_ context.Context, resourceID, locationID uuid.UUID, date string, times []string) (*availability.Record, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return nil, 0, l.down
	}

	k := dayKey{resourceID, locationID, date}
	d, ok := l.days[k]
	if !ok {
		d = &day{id: uuid.New(), slots: []availability.Slot{}}
		l.days[k] = d
	}

	added := 0
	for _, t := range times {
		exists := false
		for _, s := range d.slots {
			if s.Time == t {
				exists = true
				break
			}
		}
		if !exists {
			d.slots = append(d.slots, availability.Slot{Time: t})
			added++
		}
	}

	return &availability.Record{
		ID:         d.id,
		ResourceID: resourceID,
		LocationID: locationID,
		Date:       date,
		Slots:      append([]availability.Slot{}, d.slots...),
	}, added, nil
}

// booking.Repository

// insert appends b. Callers hold l.mu.
func (l *Ledger) insert(b *booking.Booking) error {
	if l.insertErr != nil {
		return l.insertErr
	}
	key := b.ResourceID.String() + "|" + b.Timeslot
	if _, taken := l.timeslots[key]; taken {
		return booking.ErrSlotAlreadyReserved
	}

	now := l.tick()
	b.CreatedAt = now
	b.UpdatedAt = now
	l.timeslots[key] = struct{}{}
	l.bookings = append(l.bookings, *b)
	return nil
}

func (l *Ledger) ReserveSlot(_ context.Context, key availability.SlotKey, b *booking.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return l.down
	}

	d, i, ok := l.claim(key)
	if !ok {
		return availability.ErrNoOpenSlot
	}
	if err := l.insert(b); err != nil {
		d.slots[i].Reserved = false
		return err
	}
	return nil
}

func (l *Ledger) Create(_ context.Context, b *booking.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return l.down
	}
	return l.insert(b)
}

func (l *Ledger) withNames(b booking.Booking) booking.Booking {
	b.ResourceName = l.resources[b.ResourceID].Name
	b.LocationName = l.locations[b.LocationID].Name
	return b
}

func (l *Ledger) ListByOwner(_ context.Context, ownerID uuid.UUID, limit int) ([]booking.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return nil, l.down
	}

	out := []booking.Booking{}
	for i := len(l.bookings) - 1; i >= 0 && len(out) < limit; i-- {
		if l.bookings[i].OwnerID == ownerID {
			out = append(out, l.withNames(l.bookings[i]))
		}
	}
	return out, nil
}

func (l *Ledger) confirmedAt(k dayKey, t string) bool {
	for _, b := range l.bookings {
		if b.Status == booking.StatusConfirmed && b.ResourceID == k.resourceID &&
			b.LocationID == k.locationID && b.Date == k.date && b.Time == t {
			return true
		}
	}
	return false
}

func (l *Ledger) OrphanedReservations(_ context.Context) ([]booking.SlotRef, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return nil, l.down
	}

	out := []booking.SlotRef{}
	for k, d := range l.days {
		for _, s := range d.slots {
			if s.Reserved && !l.confirmedAt(k, s.Time) {
				out = append(out, booking.SlotRef{ResourceID: k.resourceID, LocationID: k.locationID, Date: k.date, Time: s.Time})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (l *Ledger) UnbackedBookings(_ context.Context) ([]booking.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down != nil {
		return nil, l.down
	}

	out := []booking.Booking{}
	for _, b := range l.bookings {
		if b.Status != booking.StatusConfirmed {
			continue
		}
		backed := false
		if d, ok := l.days[dayKey{b.ResourceID, b.LocationID, b.Date}]; ok {
			for _, s := range d.slots {
				if s.Time == b.Time && s.Reserved {
					backed = true
					break
				}
			}
		}
		if !backed {
			out = append(out, l.withNames(b))
		}
	}
	return out, nil
}

// InsertBooking stores b without touching any slot, for staging inconsistent ledgers.
func (l *Ledger) InsertBooking(b booking.Booking) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.insert(&b)
}
