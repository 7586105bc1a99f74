package catalog

import (
	"time"

	"github.com/google/uuid"
)

type Location struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Resource is a bookable person or chair, e.g. an artist.
type Resource struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	Kind        string      `db:"kind" json:"kind"`
	Active      bool        `db:"active" json:"active"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	LocationIDs []uuid.UUID `db:"-" json:"location_ids"`
}

// Ref is the display identity of a location or resource.
type Ref struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func (l Location) Ref() Ref { return Ref{ID: l.ID, Name: l.Name} }
func (r Resource) Ref() Ref { return Ref{ID: r.ID, Name: r.Name} }

type CreateLocationRequest struct {
	Name    string `json:"name" binding:"required,max=120"`
	Address string `json:"address" binding:"max=255"`
}

type CreateResourceRequest struct {
	Name        string   `json:"name" binding:"required,max=120"`
	Kind        string   `json:"kind" binding:"omitempty,max=40"`
	LocationIDs []string `json:"location_ids" binding:"required,min=1,dive,uuid"`
}
