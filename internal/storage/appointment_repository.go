package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trinslooks/studio-api/internal/booking"
	"github.com/trinslooks/studio-api/internal/db"
	"github.com/trinslooks/studio-api/internal/model"
	"github.com/trinslooks/studio-api/internal/outbox"
)

// AppointmentRepository persists appointments and writes a matching outbox
// event in the same transaction as every mutation.
//
// The appointments table carries computed start_at/end_at columns guarded by
// an exclusion constraint over non-cancelled rows, so two bookings that both
// saw a slot as free cannot both commit: the loser gets a 23P01 conflict.
type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo}
}

const appointmentColumns = `
	id::text, service_id, date, time_slot, duration,
	customer_name, customer_email, customer_phone,
	status, COALESCE(external_event_ref, ''), created_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID, &a.ServiceID, &a.Date, &a.TimeSlot, &a.DurationText,
		&a.CustomerName, &a.CustomerEmail, &a.CustomerPhone,
		&a.Status, &a.ExternalEventRef, &a.CreatedAt,
	)
	return a, err
}

func (r *AppointmentRepository) Insert(ctx context.Context, appt *model.Appointment) error {
	startAt, err := booking.SlotStart(appt.Date, appt.TimeSlot)
	if err != nil {
		return err
	}
	endAt := startAt.Add(booking.ParseDuration(appt.DurationText))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO appointments
			(id, service_id, date, time_slot, duration,
			customer_name, customer_email, customer_phone,
			status, created_at, start_at, end_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, appt.ID, appt.ServiceID, appt.Date, appt.TimeSlot, appt.DurationText,
		appt.CustomerName, appt.CustomerEmail, appt.CustomerPhone,
		appt.Status, appt.CreatedAt, startAt, endAt)
	if err != nil {
		if isExclusionConflict(err) {
			return booking.ErrSlotConflict
		}
		return err
	}

	if err := r.writeEvent(ctx, tx, *appt, "appointment.booked.v1"); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, booking.ErrNotFound
	}
	return appt, err
}

// UpdateStatus commits a transition conditioned on the expected current
// status, so a concurrent mutation loses cleanly instead of overwriting.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := scanAppointment(tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING`+appointmentColumns, id, from, to))
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := r.writeEvent(ctx, tx, appt, "appointment."+to+".v1"); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *AppointmentRepository) SetEventRef(ctx context.Context, id, ref string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET external_event_ref = $2
		WHERE id = $1
	`, id, ref)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := scanAppointment(tx.QueryRow(ctx, `
		DELETE FROM appointments
		WHERE id = $1
		RETURNING`+appointmentColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := r.writeEvent(ctx, tx, appt, "appointment.deleted.v1"); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListActiveByDate returns the date's appointments that block availability,
// i.e. everything not cancelled, in start order.
func (r *AppointmentRepository) ListActiveByDate(ctx context.Context, date string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE date = $1 AND status <> $2
		ORDER BY start_at ASC
	`, date, model.StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// List returns appointments for the admin dashboard, newest day first,
// optionally narrowed by date and/or status.
func (r *AppointmentRepository) List(ctx context.Context, date, status string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE ($1 = '' OR date = $1)
			AND ($2 = '' OR status = $2)
		ORDER BY start_at DESC
		LIMIT 200
	`, date, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func (r *AppointmentRepository) writeEvent(ctx context.Context, tx pgx.Tx, appt model.Appointment, eventType string) error {
	payload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"service_id":     appt.ServiceID,
		"date":           appt.Date,
		"time_slot":      appt.TimeSlot,
		"duration":       appt.DurationText,
		"customer_email": appt.CustomerEmail,
		"status":         appt.Status,
		"occurred_at":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}

// isExclusionConflict matches Postgres exclusion constraint violations
// (SQLSTATE 23P01), raised by the no-overlap constraint on appointments.
func isExclusionConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}
