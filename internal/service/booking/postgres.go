package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhouzirui/clinic-desk/backend/internal/service/risk"
)

const appointmentSchema = `
CREATE TABLE IF NOT EXISTS appointments (
	id           TEXT PRIMARY KEY,
	doctor_id    TEXT NOT NULL,
	patient_name TEXT NOT NULL,
	phone        TEXT NOT NULL,
	problem      TEXT NOT NULL,
	date         TEXT NOT NULL,
	time         TEXT NOT NULL,
	status       TEXT NOT NULL,
	risk         JSONB,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS appointments_confirmed_slot
	ON appointments (doctor_id, date, time) WHERE status = 'confirmed'`

const uniqueViolation = "23505"

// PostgresRepository stores appointments in PostgreSQL. The partial unique
// index on confirmed slots makes double booking impossible across processes.
type PostgresRepository struct {
	pool       *pgxpool.Pool
	maxElapsed time.Duration
}

// NewPostgresRepository wraps an open pool and makes sure the schema exists.
func NewPostgresRepository(ctx context.Context, pool *pgxpool.Pool) (*PostgresRepository, error) {
	if _, err := pool.Exec(ctx, appointmentSchema); err != nil {
		return nil, fmt.Errorf("create appointments: %w", err)
	}
	return &PostgresRepository{pool: pool, maxElapsed: 5 * time.Second}, nil
}

// Create inserts appt, retrying transient failures with exponential backoff.
func (r *PostgresRepository) Create(ctx context.Context, appt Appointment) error {
	var riskJSON *string
	if appt.Risk != nil {
		encoded, err := sonic.MarshalString(appt.Risk)
		if err != nil {
			return fmt.Errorf("encode risk: %w", err)
		}
		riskJSON = &encoded
	}

	backOff := backoff.NewExponentialBackOff()
	backOff.InitialInterval = 100 * time.Millisecond
	backOff.MaxElapsedTime = r.maxElapsed

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		_, err := r.pool.Exec(ctx, `
INSERT INTO appointments (id, doctor_id, patient_name, phone, problem, date, time, status, risk, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)`,
			appt.ID, appt.DoctorID, appt.PatientName, appt.Phone, appt.Problem,
			appt.Date, appt.Time, appt.Status, riskJSON, appt.CreatedAt)
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return backoff.Permanent(ErrSlotTaken)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		log.Printf("[booking] insert appointment %s attempt %d failed: %v", appt.ID, attempt, err)
		return err
	}, backoff.WithContext(backOff, ctx))
}

// ListByDoctor returns a doctor's appointments ordered by date and time.
func (r *PostgresRepository) ListByDoctor(ctx context.Context, doctorID, date string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, doctor_id, patient_name, phone, problem, date, time, status, risk::text, created_at
FROM appointments
WHERE doctor_id = $1 AND ($2 = '' OR date = $2)
ORDER BY date, time`, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	out := make([]Appointment, 0)
	for rows.Next() {
		var (
			appt     Appointment
			riskJSON *string
		)
		if err := rows.Scan(&appt.ID, &appt.DoctorID, &appt.PatientName, &appt.Phone, &appt.Problem,
			&appt.Date, &appt.Time, &appt.Status, &riskJSON, &appt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		if riskJSON != nil {
			var a risk.Assessment
			if err := sonic.UnmarshalString(*riskJSON, &a); err == nil {
				appt.Risk = &a
			}
		}
		out = append(out, appt)
	}
	return out, rows.Err()
}
