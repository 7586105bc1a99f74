package availability

import (
	"github.com/google/uuid"

	"github.com/Tesudeix/Yuki/internal/catalog"
)

const (
	MinDays     = 1
	MaxDays     = 30
	DefaultDays = 7
)

type Slot struct {
	Time     string `json:"time"`
	Reserved bool   `json:"reserved"`
}

// Record is the slot list of one resource at one location on one day.
// A zero ID marks an implicit record for a day nobody has seeded.
type Record struct {
	ID         uuid.UUID `json:"id"`
	ResourceID uuid.UUID `json:"resource_id"`
	LocationID uuid.UUID `json:"location_id"`
	Date       string    `json:"date"`
	Slots      []Slot    `json:"slots"`
}

// SlotKey addresses a single slot.
type SlotKey struct {
	ResourceID uuid.UUID
	LocationID uuid.UUID
	Date       string
	Time       string
}

// Timeslot is the per-resource uniqueness key of a booking at this slot.
func (k SlotKey) Timeslot() string {
	return k.Date + "T" + k.Time
}

type SlotView struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type DayView struct {
	Date    string     `json:"date"`
	Weekday string     `json:"weekday"`
	Slots   []SlotView `json:"slots"`
}

type View struct {
	Location catalog.Ref `json:"location"`
	Resource catalog.Ref `json:"resource"`
	Days     []DayView   `json:"days"`
}

// Query holds raw request parameters. A nil Days means the default range.
type Query struct {
	ResourceID string
	LocationID string
	FromDate   string
	Days       *int
}

type SeedRequest struct {
	ResourceID string   `json:"resourceId" binding:"required,uuid"`
	LocationID string   `json:"locationId" binding:"required,uuid"`
	Date       string   `json:"date" binding:"required,calendar_date"`
	Times      []string `json:"times" binding:"required,min=1,dive,clock_time"`
}

type SeedResponse struct {
	Record Record `json:"record"`
	Added  int    `json:"added"`
}
