package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"medication-tracker/internal/domain/medications"
)

type MedicationsRepo struct {
	db *sql.DB
}

func NewMedicationsRepo(db *sql.DB) *MedicationsRepo {
	return &MedicationsRepo{db: db}
}

const medicationColumns = `
	id, user_id, medicine_id, medicine_name,
	dosage, frequency, times,
	start_date, end_date, is_active,
	last_taken, next_dose, dismissed, notes,
	source, raw_text,
	created_at, updated_at`

const insertMedicationSQL = `
	INSERT INTO medications (` + medicationColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`

// created_at no se actualiza; los args salen de medicationUpdateArgs.
const updateMedicationSQL = `
	UPDATE medications
	SET
		medicine_id = $3,
		medicine_name = $4,
		dosage = $5,
		frequency = $6,
		times = $7,
		start_date = $8,
		end_date = $9,
		is_active = $10,
		last_taken = $11,
		next_dose = $12,
		dismissed = $13,
		notes = $14,
		source = $15,
		raw_text = $16,
		updated_at = $17
	WHERE id = $1 AND user_id = $2`

// dismissalRow es el formato de cada elemento del JSONB dismissed.
type dismissalRow struct {
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	DismissedAt time.Time `json:"dismissed_at"`
}

func (r *MedicationsRepo) Create(ctx context.Context, m medications.Medication) error {
	args, err := medicationArgs(m)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, insertMedicationSQL, args...)
	return err
}

func (r *MedicationsRepo) GetByID(ctx context.Context, userID, id string) (medications.Medication, error) {
	if strings.TrimSpace(id) == "" {
		return medications.Medication{}, medications.ErrMedicationNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE user_id = $1 AND id = $2
	`, userID, id)
	m, err := scanMedication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return medications.Medication{}, medications.ErrMedicationNotFound
		}
		return medications.Medication{}, err
	}
	return m, nil
}

func (r *MedicationsRepo) ListByUser(ctx context.Context, userID string) ([]medications.Medication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Apply toma la fila con FOR UPDATE dentro de una transacción, así dos
// mutaciones concurrentes sobre la misma medicación no se pisan.
func (r *MedicationsRepo) Apply(ctx context.Context, userID, id string, fn func(*medications.Medication) error) (medications.Medication, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return medications.Medication{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE user_id = $1 AND id = $2
		FOR UPDATE
	`, userID, id)
	current, err := scanMedication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return medications.Medication{}, medications.ErrMedicationNotFound
		}
		return medications.Medication{}, err
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return medications.Medication{}, err
	}
	next.ID, next.UserID = current.ID, current.UserID

	args, err := medicationUpdateArgs(next)
	if err != nil {
		return medications.Medication{}, err
	}
	if _, err := tx.ExecContext(ctx, updateMedicationSQL, args...); err != nil {
		return medications.Medication{}, err
	}

	if err := tx.Commit(); err != nil {
		return medications.Medication{}, err
	}
	return next, nil
}

func (r *MedicationsRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medications.ErrMedicationNotFound
	}
	return nil
}

// medicationArgs respeta el orden de medicationColumns.
func medicationArgs(m medications.Medication) ([]any, error) {
	times, err := json.Marshal(nonNil(m.Times))
	if err != nil {
		return nil, err
	}

	rows := make([]dismissalRow, 0, len(m.DismissedReminders))
	for _, d := range m.DismissedReminders {
		rows = append(rows, dismissalRow{Date: d.Date.String(), Time: d.Time, DismissedAt: d.DismissedAt})
	}
	dismissed, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}

	var end sql.NullString
	if m.EndDate != nil {
		end = sql.NullString{String: m.EndDate.String(), Valid: true}
	}

	return []any{
		m.ID,
		m.UserID,
		m.MedicineID,
		m.MedicineName,
		m.Dosage,
		string(m.Frequency),
		times,
		m.StartDate.String(),
		end,
		m.IsActive,
		toNullTime(m.LastTaken),
		toNullTime(m.NextDose),
		dismissed,
		m.Notes,
		string(sourceOrManual(m.Source)),
		m.RawText,
		m.CreatedAt,
		m.UpdatedAt,
	}, nil
}

// medicationUpdateArgs son los de medicationArgs sin created_at: Postgres no
// puede tipar un placeholder que no aparece en la sentencia.
func medicationUpdateArgs(m medications.Medication) ([]any, error) {
	args, err := medicationArgs(m)
	if err != nil {
		return nil, err
	}
	n := len(args)
	out := append([]any(nil), args[:n-2]...)
	return append(out, args[n-1]), nil
}

func sourceOrManual(s medications.Source) medications.Source {
	if s == "" {
		return medications.SourceManual
	}
	return s
}

func scanMedication(row rowScanner) (medications.Medication, error) {
	var (
		m             medications.Medication
		frequency     string
		rawTimes      []byte
		start         time.Time
		end           sql.NullTime
		lastTaken     sql.NullTime
		nextDose      sql.NullTime
		rawDismissals []byte
		source        string
	)
	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.MedicineID,
		&m.MedicineName,
		&m.Dosage,
		&frequency,
		&rawTimes,
		&start,
		&end,
		&m.IsActive,
		&lastTaken,
		&nextDose,
		&rawDismissals,
		&m.Notes,
		&source,
		&m.RawText,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return medications.Medication{}, err
	}

	m.Frequency = medications.Frequency(frequency)
	m.Source = medications.Source(source)
	// DATE llega como medianoche UTC
	m.StartDate = medications.DateOf(start.UTC())
	if end.Valid {
		d := medications.DateOf(end.Time.UTC())
		m.EndDate = &d
	}
	m.LastTaken = fromNullTime(lastTaken)
	m.NextDose = fromNullTime(nextDose)

	if len(rawTimes) > 0 {
		if err := json.Unmarshal(rawTimes, &m.Times); err != nil {
			return medications.Medication{}, fmt.Errorf("decode times: %w", err)
		}
	}

	if len(rawDismissals) > 0 {
		var rows []dismissalRow
		if err := json.Unmarshal(rawDismissals, &rows); err != nil {
			return medications.Medication{}, fmt.Errorf("decode dismissals: %w", err)
		}
		for _, d := range rows {
			day, err := medications.ParseDate(d.Date)
			if err != nil {
				return medications.Medication{}, err
			}
			m.DismissedReminders = append(m.DismissedReminders, medications.Dismissal{
				Date:        day,
				Time:        d.Time,
				DismissedAt: d.DismissedAt,
			})
		}
	}

	return m, nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
