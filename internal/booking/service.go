package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Tesudeix/Yuki/internal/api"
	"github.com/Tesudeix/Yuki/internal/apperr"
	"github.com/Tesudeix/Yuki/internal/availability"
	"github.com/Tesudeix/Yuki/internal/catalog"
	"github.com/Tesudeix/Yuki/internal/config"
	"github.com/Tesudeix/Yuki/internal/logger"
	"github.com/Tesudeix/Yuki/internal/metrics"
)

const (
	EventConfirmed = "booking.confirmed"
	EventOrphaned  = "booking.orphaned"
)

var (
	ErrSlotAlreadyReserved = availability.ErrNoOpenSlot
	ErrDayNotFound         = apperr.NotFound("no availability for this date")
	ErrNotRecorded         = apperr.New(apperr.KindInternal, "booking could not be recorded")
)

var tracer = otel.Tracer("github.com/Tesudeix/Yuki/internal/booking")

type ResourceResolver interface {
	ResolveResourceAtLocation(ctx context.Context, resourceID, locationID uuid.UUID) (*catalog.Resource, *catalog.Location, error)
}

// SlotStore is the slot side of a booking. ClaimSlot must be a single atomic
// conditional update.
type SlotStore interface {
	ClaimSlot(ctx context.Context, key availability.SlotKey) (uuid.UUID, error)
	DayExists(ctx context.Context, resourceID, locationID uuid.UUID, date string) (bool, error)
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

type Notifier interface {
	BookingConfirmed(ctx context.Context, b BookingResponse) error
}

type Options struct {
	// WriteMode is config.WriteModeTransactional (default) or config.WriteModeTwoStep.
	WriteMode string
	Publisher EventPublisher
	Notifier  Notifier
}

type Service interface {
	Book(ctx context.Context, ownerID uuid.UUID, req CreateBookingRequest) (*BookingResponse, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]BookingResponse, error)
	CheckConsistency(ctx context.Context) (*ConsistencyReport, error)
}

type service struct {
	repo      Repository
	slots     SlotStore
	catalog   ResourceResolver
	writeMode string
	publisher EventPublisher
	notifier  Notifier
}

func NewService(repo Repository, slots SlotStore, resolver ResourceResolver, opts Options) Service {
	if opts.WriteMode == "" {
		opts.WriteMode = config.WriteModeTransactional
	}
	return &service{
		repo:      repo,
		slots:     slots,
		catalog:   resolver,
		writeMode: opts.WriteMode,
		publisher: opts.Publisher,
		notifier:  opts.Notifier,
	}
}

func parseRequest(req CreateBookingRequest) (availability.SlotKey, error) {
	resourceID, err := api.ParseID("resourceId", req.ResourceID)
	if err != nil {
		return availability.SlotKey{}, err
	}
	locationID, err := api.ParseID("locationId", req.LocationID)
	if err != nil {
		return availability.SlotKey{}, err
	}
	if !api.IsCalendarDate(req.Date) {
		return availability.SlotKey{}, apperr.InvalidInput("date must be YYYY-MM-DD")
	}
	if !api.IsClockTime(req.Time) {
		return availability.SlotKey{}, apperr.InvalidInput("time must be HH:MM")
	}
	if len(req.Note) > maxNoteLength {
		return availability.SlotKey{}, apperr.InvalidInput("note is too long")
	}
	return availability.SlotKey{
		ResourceID: resourceID,
		LocationID: locationID,
		Date:       req.Date,
		Time:       req.Time,
	}, nil
}

func (s *service) Book(ctx context.Context, ownerID uuid.UUID, req CreateBookingRequest) (*BookingResponse, error) {
	ctx, span := tracer.Start(ctx, "booking.Book", trace.WithAttributes(
		attribute.String("booking.write_mode", s.writeMode),
	))
	defer span.End()

	resp, err := s.book(ctx, span, ownerID, req)
	if err != nil {
		kind := apperr.KindOf(err)
		metrics.RecordBooking(string(kind), s.writeMode)
		span.SetAttributes(attribute.String("booking.outcome", string(kind)))
		if kind == apperr.KindInternal || kind == apperr.KindServiceUnavailable {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(kind))
		}
		return nil, err
	}

	metrics.RecordBooking(StatusConfirmed, s.writeMode)
	span.SetAttributes(attribute.String("booking.outcome", StatusConfirmed))
	return resp, nil
}

func (s *service) book(ctx context.Context, span trace.Span, ownerID uuid.UUID, req CreateBookingRequest) (*BookingResponse, error) {
	key, err := parseRequest(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("booking.resource_id", key.ResourceID.String()),
		attribute.String("booking.timeslot", key.Timeslot()),
	)

	resource, location, err := s.catalog.ResolveResourceAtLocation(ctx, key.ResourceID, key.LocationID)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		ResourceID:   key.ResourceID,
		LocationID:   key.LocationID,
		Date:         key.Date,
		Time:         key.Time,
		Timeslot:     key.Timeslot(),
		Status:       StatusConfirmed,
		Note:         strings.TrimSpace(req.Note),
		ResourceName: resource.Name,
		LocationName: location.Name,
	}

	start := time.Now()
	if s.writeMode == config.WriteModeTwoStep {
		err = s.claimThenCreate(ctx, key, b)
	} else {
		err = s.repo.ReserveSlot(ctx, key, b)
		if err == nil || apperr.KindOf(err) == apperr.KindSlotAlreadyReserved {
			metrics.RecordSlotClaim(err == nil)
		}
	}
	metrics.ObserveSlotClaim(s.writeMode, time.Since(start).Seconds())

	if err != nil {
		if apperr.KindOf(err) == apperr.KindSlotAlreadyReserved {
			return nil, s.explainMissedClaim(ctx, key)
		}
		return nil, err
	}

	resp := b.Response()
	s.publish(ctx, EventConfirmed, b, nil)
	if s.notifier != nil {
		if err := s.notifier.BookingConfirmed(ctx, resp); err != nil {
			logger.Warn("booking confirmation email not queued",
				"booking_id", b.ID.String(),
				"error", err,
			)
		}
	}

	logger.Info("booking confirmed",
		"booking_id", b.ID.String(),
		"owner_id", ownerID.String(),
		"resource_id", key.ResourceID.String(),
		"timeslot", b.Timeslot,
	)
	return &resp, nil
}

// claimThenCreate writes the claim and the booking separately. If the insert
// fails the slot stays reserved with no booking behind it; that state is
// logged, counted and published for reconciliation.
func (s *service) claimThenCreate(ctx context.Context, key availability.SlotKey, b *Booking) error {
	if _, err := s.slots.ClaimSlot(ctx, key); err != nil {
		if apperr.KindOf(err) == apperr.KindSlotAlreadyReserved {
			metrics.RecordSlotClaim(false)
		}
		return err
	}
	metrics.RecordSlotClaim(true)

	if err := s.repo.Create(ctx, b); err != nil {
		logger.Error("booking insert failed after slot claim",
			"orphaned_reservation", true,
			"resource_id", key.ResourceID.String(),
			"location_id", key.LocationID.String(),
			"date", key.Date,
			"time", key.Time,
			"error", err,
		)
		metrics.RecordOrphanedReservation()
		s.publish(ctx, EventOrphaned, b, err)
		return apperr.Wrap(ErrNotRecorded.Kind, ErrNotRecorded.Message, err)
	}
	return nil
}

// explainMissedClaim splits a failed claim into "no such day" and "no open
// slot". A missing time and a reserved time stay indistinguishable.
func (s *service) explainMissedClaim(ctx context.Context, key availability.SlotKey) error {
	exists, err := s.slots.DayExists(ctx, key.ResourceID, key.LocationID, key.Date)
	if err != nil {
		return err
	}
	if !exists {
		return ErrDayNotFound
	}
	return ErrSlotAlreadyReserved
}

func (s *service) publish(ctx context.Context, eventType string, b *Booking, cause error) {
	if s.publisher == nil {
		return
	}

	evt := Event{
		Type:       eventType,
		BookingID:  b.ID,
		OwnerID:    b.OwnerID,
		ResourceID: b.ResourceID,
		LocationID: b.LocationID,
		Timeslot:   b.Timeslot,
		OccurredAt: time.Now().UTC(),
	}
	if cause != nil {
		evt.Error = cause.Error()
	}

	if err := s.publisher.PublishJSON(ctx, eventType, evt); err != nil {
		logger.Warn("booking event not published",
			"event", eventType,
			"booking_id", b.ID.String(),
			"error", err,
		)
	}
}

// ClampLimit bounds a page size to [1, DefaultPageSize].
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > DefaultPageSize {
		return DefaultPageSize
	}
	return limit
}

func (s *service) ListForOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]BookingResponse, error) {
	bookings, err := s.repo.ListByOwner(ctx, ownerID, ClampLimit(limit))
	if err != nil {
		return nil, err
	}

	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Response())
	}
	return out, nil
}

func (s *service) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	orphaned, err := s.repo.OrphanedReservations(ctx)
	if err != nil {
		return nil, err
	}
	unbacked, err := s.repo.UnbackedBookings(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		Consistent:           len(orphaned) == 0 && len(unbacked) == 0,
		OrphanedReservations: orphaned,
		UnbackedBookings:     make([]BookingResponse, 0, len(unbacked)),
		CheckedAt:            time.Now().UTC(),
	}
	for _, b := range unbacked {
		report.UnbackedBookings = append(report.UnbackedBookings, b.Response())
	}

	metrics.SetConsistency(len(orphaned), len(unbacked))
	if !report.Consistent {
		logger.Warn("booking ledger inconsistent",
			"orphaned_reservations", len(orphaned),
			"unbacked_bookings", len(unbacked),
		)
	}
	return report, nil
}
