package store

import (
	"context"
	"time"

	"agendaki/internal/domain"
)

// BookingPatch carries the fields a management PATCH may change. Nil fields
// keep their stored values.
type BookingPatch struct {
	ClientName    *string
	ClientContact *string
	ServiceID     *int64
	Date          *time.Time
	StartTime     *domain.TimeOfDay
	EndTime       *domain.TimeOfDay
	Status        *string
}

func (p BookingPatch) Empty() bool {
	return p.ClientName == nil && p.ClientContact == nil && p.ServiceID == nil &&
		p.Date == nil && p.StartTime == nil && p.EndTime == nil && p.Status == nil
}

// TouchesSchedule reports whether the patch moves the booking on the
// calendar, which forces a fresh conflict check.
func (p BookingPatch) TouchesSchedule() bool {
	return p.Date != nil || p.StartTime != nil || p.EndTime != nil
}

type BookingRepository interface {
	Create(ctx context.Context, booking domain.Booking) (domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	Get(ctx context.Context, id int64) (domain.Booking, error)
	Update(ctx context.Context, id int64, patch BookingPatch) error
	Approve(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	OccupiedSlots(ctx context.Context, date time.Time) ([]domain.OccupiedSlot, error)
}
