package store

import (
	"context"
	"time"

	"agendaki/internal/domain"
)

// ScheduleTx is the slice of a store transaction the conflict check needs.
// Implementations must run every method inside one transaction that also
// holds the day's schedule lock, so a check-then-insert pair cannot race
// another create for the same date.
type ScheduleTx interface {
	ListActiveByDate(ctx context.Context, date time.Time) ([]domain.Booking, error)
	InsertBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error)
	GetBookingForUpdate(ctx context.Context, id int64) (domain.Booking, error)
	UpdateBooking(ctx context.Context, booking domain.Booking) error
}
