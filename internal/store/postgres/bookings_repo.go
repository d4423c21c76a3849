package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"agendaki/internal/domain"
	"agendaki/internal/store"
)

type BookingRepo struct {
	db *bun.DB
}

func NewBookingRepo(db *bun.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

type scheduleTx struct {
	tx bun.Tx
}

func (r *BookingRepo) Create(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	var out domain.Booking
	err := r.inDayTransaction(ctx, booking.Date, func(ctx context.Context, tx store.ScheduleTx) error {
		if err := ensureNoBookingConflict(ctx, tx, booking.Date, booking.StartTime, booking.EndTime, 0); err != nil {
			return err
		}
		b, err := tx.InsertBooking(ctx, booking)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

func (r *BookingRepo) List(ctx context.Context) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Service").
		OrderExpr("a.data_agendamento DESC, a.hora_inicio DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookingRepo) Get(ctx context.Context, id int64) (domain.Booking, error) {
	var b domain.Booking
	err := r.db.NewSelect().
		Model(&b).
		Relation("Service").
		Where("a.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

// Update merges the patch over the stored row inside one transaction. When
// the patch moves the booking on the calendar it takes the target day's
// schedule lock and re-runs the conflict check, excluding the booking itself.
func (r *BookingRepo) Update(ctx context.Context, id int64, patch store.BookingPatch) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, btx bun.Tx) error {
		tx := scheduleTx{tx: btx}

		existing, err := tx.GetBookingForUpdate(ctx, id)
		if err != nil {
			return err
		}

		merged := applyBookingPatch(existing, patch)
		if merged.EndTime <= merged.StartTime {
			return store.ErrInvalidInterval
		}

		if patch.TouchesSchedule() {
			if err := lockDaySchedule(ctx, btx, merged.Date); err != nil {
				return err
			}
			if err := ensureNoBookingConflict(ctx, tx, merged.Date, merged.StartTime, merged.EndTime, id); err != nil {
				return err
			}
		}

		return tx.UpdateBooking(ctx, merged)
	})
}

func (r *BookingRepo) Approve(ctx context.Context, id int64) error {
	res, err := r.db.NewUpdate().
		Model((*domain.Booking)(nil)).
		Set("status = ?", domain.StatusApproved).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *BookingRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().
		Model((*domain.Booking)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *BookingRepo) OccupiedSlots(ctx context.Context, date time.Time) ([]domain.OccupiedSlot, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Service").
		Where("a.data_agendamento = ?", date).
		Where("a.status IN (?)", bun.In([]string{domain.StatusPending, domain.StatusApproved})).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.OccupiedSlot, 0, len(rows))
	for _, b := range rows {
		duration := int(b.EndTime - b.StartTime)
		if b.Service != nil {
			duration = b.Service.DurationMinutes
		}
		out = append(out, domain.OccupiedSlot{
			StartTime:       b.StartTime,
			EndTime:         b.EndTime,
			DurationMinutes: duration,
		})
	}
	return out, nil
}

func (r *BookingRepo) inDayTransaction(ctx context.Context, date time.Time, fn func(ctx context.Context, tx store.ScheduleTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockDaySchedule(ctx, tx, date); err != nil {
			return err
		}
		return fn(ctx, scheduleTx{tx: tx})
	})
}

// lockDaySchedule serializes all booking writes for one calendar day, so the
// conflict check and the insert behave as a single atomic step.
func lockDaySchedule(ctx context.Context, tx bun.Tx, date time.Time) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", "agendamentos:"+date.Format(domain.DateLayout)).Exec(ctx)
	return err
}

func ensureNoBookingConflict(ctx context.Context, tx store.ScheduleTx, date time.Time, start, end domain.TimeOfDay, excludeID int64) error {
	day, err := tx.ListActiveByDate(ctx, date)
	if err != nil {
		return err
	}
	if domain.HasConflict(day, start, end, excludeID) {
		return store.ErrConflict
	}
	return nil
}

func applyBookingPatch(b domain.Booking, patch store.BookingPatch) domain.Booking {
	if patch.ClientName != nil {
		b.ClientName = *patch.ClientName
	}
	if patch.ClientContact != nil {
		b.ClientContact = *patch.ClientContact
	}
	if patch.ServiceID != nil {
		b.ServiceID = *patch.ServiceID
	}
	if patch.Date != nil {
		b.Date = *patch.Date
	}
	if patch.StartTime != nil {
		b.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		b.EndTime = *patch.EndTime
	}
	if patch.Status != nil {
		b.Status = *patch.Status
	}
	b.Service = nil
	return b
}

func (r scheduleTx) ListActiveByDate(ctx context.Context, date time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.tx.NewSelect().
		Model(&rows).
		Where("a.data_agendamento = ?", date).
		Where("a.status IN (?)", bun.In([]string{domain.StatusPending, domain.StatusApproved})).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r scheduleTx) InsertBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	m := booking
	m.Service = nil

	_, err := r.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		return domain.Booking{}, mapConstraintError(err)
	}

	booking.ID = m.ID
	booking.Status = m.Status
	booking.CreatedAt = m.CreatedAt
	return booking, nil
}

func (r scheduleTx) GetBookingForUpdate(ctx context.Context, id int64) (domain.Booking, error) {
	var b domain.Booking
	err := r.tx.NewSelect().
		Model(&b).
		Where("a.id = ?", id).
		Limit(1).
		For("UPDATE").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

func (r scheduleTx) UpdateBooking(ctx context.Context, booking domain.Booking) error {
	m := booking
	m.Service = nil

	res, err := r.tx.NewUpdate().Model(&m).WherePK().Exec(ctx)
	if err != nil {
		return mapConstraintError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// mapConstraintError translates the agendamentos_no_overlap exclusion
// constraint into the store conflict sentinel. The advisory lock already
// prevents the race; the constraint is the store-level backstop.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23P01" && pgErr.ConstraintName == "agendamentos_no_overlap" {
			return store.ErrConflict
		}
	}
	return err
}
