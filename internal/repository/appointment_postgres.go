package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"barberapp/internal/domain"
	"barberapp/pkg/database"
)

type AppointmentRepo struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

// NewAppointmentRepository returns the ledger. lockTimeout bounds the wait
// for another instance's reservation of the same barber; zero waits forever.
func NewAppointmentRepository(db *pgxpool.Pool, lockTimeout time.Duration) *AppointmentRepo {
	return &AppointmentRepo{
		db:          db,
		lockTimeout: lockTimeout,
	}
}

// lockTimeoutSetting renders d as a lock_timeout value. Postgres treats 0
// as no timeout, so sub-millisecond values round up to 1ms.
func lockTimeoutSetting(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	ms := d.Milliseconds()
	if ms == 0 {
		ms = 1
	}
	return strconv.FormatInt(ms, 10) + "ms"
}

const appointmentColumns = `
	a.id, a.user_id, a.barber_id, a.service_name, a.service_duration_minutes, a.service_price,
	a.appointment_date, a.end_at, a.status, a.notes, a.reminded_at, a.created_at, a.updated_at`

const activeStatusCondition = `a.status IN ('pending', 'confirmed')`

// rowQuerier is satisfied by both the pool and a transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanAppointment(row pgx.Row, extra ...any) (*domain.Appointment, error) {
	var a domain.Appointment
	dest := []any{
		&a.ID,
		&a.UserID,
		&a.BarberID,
		&a.Service.Name,
		&a.Service.Duration,
		&a.Service.Price,
		&a.AppointmentDate,
		&a.EndAt,
		&a.Status,
		&a.Notes,
		&a.RemindedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AppointmentRepo) ActiveBetween(ctx context.Context, barberID uuid.UUID, from, to time.Time) ([]domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments a
		WHERE a.barber_id = $1
		AND ` + activeStatusCondition + `
		AND a.appointment_date < $3
		AND a.end_at > $2
		ORDER BY a.appointment_date`

	rows, err := r.db.Query(ctx, query, barberID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записей барбера: %w", err)
	}
	defer rows.Close()

	var appointments []domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		appointments = append(appointments, *a)
	}

	return appointments, rows.Err()
}

func (r *AppointmentRepo) HasConflict(ctx context.Context, barberID uuid.UUID, interval domain.Interval) (bool, error) {
	return hasConflict(ctx, r.db, barberID, interval)
}

func hasConflict(ctx context.Context, q rowQuerier, barberID uuid.UUID, interval domain.Interval) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.barber_id = $1
			AND ` + activeStatusCondition + `
			AND a.appointment_date < $3
			AND a.end_at > $2
		)`

	var exists bool
	if err := q.QueryRow(ctx, query, barberID, interval.Start, interval.End).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки доступности слота: %w", err)
	}
	return exists, nil
}

func (r *AppointmentRepo) CreateExclusive(ctx context.Context, appt *domain.Appointment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, lockTimeoutSetting(r.lockTimeout)); err != nil {
		return fmt.Errorf("ошибка установки lock_timeout: %w", err)
	}

	// Serializes reservations of one barber across every app instance
	// until the transaction ends. Fails with 55P03 once lock_timeout passes.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('barber:' || $1::text))`, appt.BarberID); err != nil {
		return fmt.Errorf("ошибка блокировки расписания барбера: %w", err)
	}

	conflict, err := hasConflict(ctx, tx, appt.BarberID, appt.Interval())
	if err != nil {
		return err
	}
	if conflict {
		return domain.ErrSlotUnavailable
	}

	query := `
		INSERT INTO appointments (id, user_id, barber_id, service_name, service_duration_minutes, service_price,
			appointment_date, end_at, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

	_, err = tx.Exec(ctx, query,
		appt.ID,
		appt.UserID,
		appt.BarberID,
		appt.Service.Name,
		appt.Service.Duration,
		appt.Service.Price,
		appt.AppointmentDate,
		appt.EndAt,
		appt.Status,
		appt.Notes,
		appt.CreatedAt,
	)
	if err != nil {
		if database.IsExclusionViolation(err) {
			return domain.ErrSlotUnavailable.WithError(err)
		}
		return fmt.Errorf("ошибка создания записи: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if database.IsExclusionViolation(err) {
			return domain.ErrSlotUnavailable.WithError(err)
		}
		return fmt.Errorf("ошибка при коммите транзакции: %w", err)
	}

	appt.UpdatedAt = appt.CreatedAt
	return nil
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments a WHERE a.id = $1`

	a, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}
	return a, nil
}

func (r *AppointmentRepo) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("a.user_id = $%d", argCount))
		args = append(args, *filter.UserID)
		argCount++
	}

	if filter.BarberID != nil {
		conditions = append(conditions, fmt.Sprintf("a.barber_id = $%d", argCount))
		args = append(args, *filter.BarberID)
		argCount++
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("a.status = ANY($%d)", argCount))
		args = append(args, statuses)
		argCount++
	}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("a.appointment_date >= $%d", argCount))
		args = append(args, *filter.From)
		argCount++
	}

	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("a.appointment_date < $%d", argCount))
		args = append(args, *filter.To)
		argCount++
	}

	query := `SELECT ` + appointmentColumns + `,
			b.id, b.name, b.shop_name, b.profile_image,
			u.id, u.name, u.profile_image
		FROM appointments a
		JOIN barbers b ON b.id = a.barber_id
		JOIN users u ON u.id = a.user_id`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Customers read newest first, barbers read their day in order.
	if filter.BarberID != nil && filter.UserID == nil {
		query += " ORDER BY a.appointment_date ASC"
	} else {
		query += " ORDER BY a.appointment_date DESC"
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
		argCount++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка записей: %w", err)
	}
	defer rows.Close()

	var appointments []domain.Appointment
	for rows.Next() {
		var barber domain.BarberSummary
		var customer domain.UserSummary

		a, err := scanAppointment(rows,
			&barber.ID, &barber.Name, &barber.ShopName, &barber.ProfileImage,
			&customer.ID, &customer.Name, &customer.ProfileImage,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}

		a.Barber = &barber
		a.Customer = &customer
		appointments = append(appointments, *a)
	}

	return appointments, rows.Err()
}

func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.AppointmentStatus, at time.Time) error {
	query := `UPDATE appointments SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`

	tag, err := r.db.Exec(ctx, query, id, from, to, at)
	if err != nil {
		if database.IsExclusionViolation(err) {
			return domain.ErrSlotUnavailable.WithError(err)
		}
		return fmt.Errorf("ошибка обновления статуса записи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition.WithMessage("appointment is no longer %s", from)
	}
	return nil
}

func (r *AppointmentRepo) DueForReminder(ctx context.Context, from, to time.Time, limit int) ([]domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments a
		WHERE ` + activeStatusCondition + `
		AND a.reminded_at IS NULL
		AND a.appointment_date >= $1
		AND a.appointment_date < $2
		ORDER BY a.appointment_date
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записей для напоминаний: %w", err)
	}
	defer rows.Close()

	var appointments []domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		appointments = append(appointments, *a)
	}

	return appointments, rows.Err()
}

func (r *AppointmentRepo) MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE appointments SET reminded_at = $2 WHERE id = $1 AND reminded_at IS NULL`, id, at)
	if err != nil {
		return false, fmt.Errorf("ошибка отметки напоминания: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
