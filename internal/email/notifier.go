package email

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Tesudeix/Yuki/internal/api"
	"github.com/Tesudeix/Yuki/internal/booking"
	"github.com/Tesudeix/Yuki/internal/user"
)

type UserLookup interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error)
}

// BookingNotifier mails the owner of a confirmed booking.
type BookingNotifier struct {
	mail  *Service
	users UserLookup
}

var _ booking.Notifier = (*BookingNotifier)(nil)

func NewBookingNotifier(mail *Service, users UserLookup) *BookingNotifier {
	return &BookingNotifier{mail: mail, users: users}
}

func (n *BookingNotifier) BookingConfirmed(ctx context.Context, b booking.BookingResponse) error {
	owner, err := n.users.GetByID(ctx, b.OwnerID)
	if err != nil {
		return fmt.Errorf("look up booking owner: %w", err)
	}

	subject, body := confirmationMessage(owner.Name, b)
	return n.mail.Send(ctx, TypeBookingConfirmation, owner.Email, owner.Name, subject, body)
}

func confirmationMessage(name string, b booking.BookingResponse) (string, string) {
	when := b.Date + " " + b.Time
	if day, err := time.Parse(api.DateLayout+" "+api.TimeLayout, when); err == nil {
		when = day.Format("Mon, Jan 2, 2006 at 15:04")
	}

	subject := "Booking confirmed with " + b.Resource.Name
	body := fmt.Sprintf(`Hi %s,

Your appointment is confirmed.

Artist: %s
Salon: %s
When: %s

Reply to this email if you need to change it.

- Yuki Salon`, name, b.Resource.Name, b.Location.Name, when)

	return subject, body
}
