package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Tesudeix/Yuki/internal/api"
	"github.com/Tesudeix/Yuki/internal/apperr"
	"github.com/Tesudeix/Yuki/internal/catalog"
	"github.com/Tesudeix/Yuki/internal/logger"
	"github.com/Tesudeix/Yuki/internal/metrics"
)

var (
	ErrNoOpenSlot       = apperr.New(apperr.KindSlotAlreadyReserved, "slot already reserved")
	ErrUnknownReference = apperr.NotFound("resource or location not found")
)

// ResourceResolver confirms a resource is bookable at a location.
type ResourceResolver interface {
	ResolveResourceAtLocation(ctx context.Context, resourceID, locationID uuid.UUID) (*catalog.Resource, *catalog.Location, error)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

type Service interface {
	ListSlots(ctx context.Context, resourceID, locationID uuid.UUID, from time.Time, days int) ([]Record, error)
	ClaimSlot(ctx context.Context, key SlotKey) (uuid.UUID, error)
	DayExists(ctx context.Context, resourceID, locationID uuid.UUID, date string) (bool, error)
	SeedDay(ctx context.Context, req SeedRequest) (*Record, int, error)
	GetAvailability(ctx context.Context, q Query) (*View, error)
}

type service struct {
	repo     Repository
	catalog  ResourceResolver
	clock    Clock
	location *time.Location
}

// NewService builds the availability service. loc decides which calendar
// day "today" is when a query has no start date.
func NewService(repo Repository, resolver ResourceResolver, clock Clock, loc *time.Location) Service {
	if clock == nil {
		clock = SystemClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:     repo,
		catalog:  resolver,
		clock:    clock,
		location: loc,
	}
}

// ClampDays bounds a requested range length to [MinDays, MaxDays].
func ClampDays(days int) int {
	if days < MinDays {
		return MinDays
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}

// dateRange lists the calendar days starting at from's date.
func dateRange(from time.Time, days int) []time.Time {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, days)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func (s *service) ListSlots(ctx context.Context, resourceID, locationID uuid.UUID, from time.Time, days int) ([]Record, error) {
	dates := dateRange(from, ClampDays(days))
	first := dates[0].Format(api.DateLayout)
	last := dates[len(dates)-1].Format(api.DateLayout)

	stored, err := s.repo.ListDays(ctx, resourceID, locationID, first, last)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]Record, len(stored))
	for _, r := range stored {
		byDate[r.Date] = r
	}

	records := make([]Record, 0, len(dates))
	for _, d := range dates {
		date := d.Format(api.DateLayout)
		if r, ok := byDate[date]; ok {
			records = append(records, r)
			continue
		}
		records = append(records, Record{
			ResourceID: resourceID,
			LocationID: locationID,
			Date:       date,
			Slots:      []Slot{},
		})
	}
	return records, nil
}

func (s *service) ClaimSlot(ctx context.Context, key SlotKey) (uuid.UUID, error) {
	return s.repo.ClaimSlot(ctx, key)
}

func (s *service) DayExists(ctx context.Context, resourceID, locationID uuid.UUID, date string) (bool, error) {
	return s.repo.DayExists(ctx, resourceID, locationID, date)
}

func (s *service) SeedDay(ctx context.Context, req SeedRequest) (*Record, int, error) {
	resourceID, err := api.ParseID("resourceId", req.ResourceID)
	if err != nil {
		return nil, 0, err
	}
	locationID, err := api.ParseID("locationId", req.LocationID)
	if err != nil {
		return nil, 0, err
	}
	if !api.IsCalendarDate(req.Date) {
		return nil, 0, apperr.InvalidInput("date must be YYYY-MM-DD")
	}
	if len(req.Times) == 0 {
		return nil, 0, apperr.InvalidInput("times must not be empty")
	}

	seen := make(map[string]struct{}, len(req.Times))
	for _, t := range req.Times {
		if !api.IsClockTime(t) {
			return nil, 0, apperr.InvalidInput("time " + t + " must be HH:MM")
		}
		if _, dup := seen[t]; dup {
			return nil, 0, apperr.InvalidInput("duplicate time " + t)
		}
		seen[t] = struct{}{}
	}

	if _, _, err := s.catalog.ResolveResourceAtLocation(ctx, resourceID, locationID); err != nil {
		return nil, 0, err
	}

	record, added, err := s.repo.SeedDay(ctx, resourceID, locationID, req.Date, req.Times)
	if err != nil {
		return nil, 0, err
	}

	metrics.RecordSeededSlots(added)
	logger.Info("availability seeded",
		"resource_id", resourceID.String(),
		"location_id", locationID.String(),
		"date", req.Date,
		"added", added,
	)
	return record, added, nil
}

func (s *service) GetAvailability(ctx context.Context, q Query) (*View, error) {
	resourceID, err := api.ParseID("resourceId", q.ResourceID)
	if err != nil {
		return nil, err
	}
	locationID, err := api.ParseID("locationId", q.LocationID)
	if err != nil {
		return nil, err
	}

	from := s.clock.Now().In(s.location)
	if q.FromDate != "" {
		if !api.IsCalendarDate(q.FromDate) {
			return nil, apperr.InvalidInput("fromDate must be YYYY-MM-DD")
		}
		from, _ = time.Parse(api.DateLayout, q.FromDate)
	}

	days := DefaultDays
	if q.Days != nil {
		days = *q.Days
	}

	resource, location, err := s.catalog.ResolveResourceAtLocation(ctx, resourceID, locationID)
	if err != nil {
		return nil, err
	}

	records, err := s.ListSlots(ctx, resourceID, locationID, from, days)
	if err != nil {
		return nil, err
	}

	view := &View{
		Location: location.Ref(),
		Resource: resource.Ref(),
		Days:     make([]DayView, 0, len(records)),
	}
	for _, r := range records {
		view.Days = append(view.Days, toDayView(r))
	}
	return view, nil
}

func toDayView(r Record) DayView {
	day, _ := time.Parse(api.DateLayout, r.Date)
	slots := make([]SlotView, 0, len(r.Slots))
	for _, s := range r.Slots {
		slots = append(slots, SlotView{Time: s.Time, Available: !s.Reserved})
	}
	return DayView{
		Date:    r.Date,
		Weekday: day.Weekday().String(),
		Slots:   slots,
	}
}
