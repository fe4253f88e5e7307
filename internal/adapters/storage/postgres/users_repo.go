package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"medication-tracker/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `
	id, name, email,
	notify_email, notify_sms, notify_push, notify_calendar,
	age, weight_kg, height_cm, phone_number,
	conditions, allergies, emergency_contact,
	created_at, updated_at`

const insertUserSQL = `
	INSERT INTO users (` + userColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`

const updateUserSQL = `
	UPDATE users
	SET
		name = $2,
		email = $3,
		notify_email = $4,
		notify_sms = $5,
		notify_push = $6,
		notify_calendar = $7,
		age = $8,
		weight_kg = $9,
		height_cm = $10,
		phone_number = $11,
		conditions = $12,
		allergies = $13,
		emergency_contact = $14,
		updated_at = $15
	WHERE id = $1`

// contactRow es el formato del JSONB emergency_contact.
type contactRow struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	args, err := userArgs(u)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, insertUserSQL, args...)
	return err
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	args, err := userUpdateArgs(u)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, updateUserSQL, args...)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, users.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) ListWithPushEnabled(ctx context.Context) ([]users.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE notify_push
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// userArgs respeta el orden de userColumns.
func userArgs(u users.User) ([]any, error) {
	h := u.Health
	conditions, err := json.Marshal(nonNil(h.Conditions))
	if err != nil {
		return nil, err
	}
	allergies, err := json.Marshal(nonNil(h.Allergies))
	if err != nil {
		return nil, err
	}
	contact, err := json.Marshal(contactRow{
		Name:         h.EmergencyContact.Name,
		Phone:        h.EmergencyContact.Phone,
		Relationship: h.EmergencyContact.Relationship,
	})
	if err != nil {
		return nil, err
	}

	var age sql.NullInt64
	if h.Age != nil {
		age = sql.NullInt64{Int64: int64(*h.Age), Valid: true}
	}

	return []any{
		u.ID,
		u.Name,
		u.Email,
		u.Notifications.Email,
		u.Notifications.SMS,
		u.Notifications.Push,
		u.Notifications.Calendar,
		age,
		toNullFloat(h.WeightKg),
		toNullFloat(h.HeightCm),
		h.PhoneNumber,
		conditions,
		allergies,
		contact,
		u.CreatedAt,
		u.UpdatedAt,
	}, nil
}

// userUpdateArgs descarta created_at, igual que medicationUpdateArgs.
func userUpdateArgs(u users.User) ([]any, error) {
	args, err := userArgs(u)
	if err != nil {
		return nil, err
	}
	n := len(args)
	out := append([]any(nil), args[:n-2]...)
	return append(out, args[n-1]), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (users.User, error) {
	var (
		u          users.User
		age        sql.NullInt64
		weight     sql.NullFloat64
		height     sql.NullFloat64
		conditions []byte
		allergies  []byte
		contact    []byte
	)
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Notifications.Email,
		&u.Notifications.SMS,
		&u.Notifications.Push,
		&u.Notifications.Calendar,
		&age,
		&weight,
		&height,
		&u.Health.PhoneNumber,
		&conditions,
		&allergies,
		&contact,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return users.User{}, err
	}

	if age.Valid {
		v := int(age.Int64)
		u.Health.Age = &v
	}
	u.Health.WeightKg = fromNullFloat(weight)
	u.Health.HeightCm = fromNullFloat(height)

	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &u.Health.Conditions); err != nil {
			return users.User{}, fmt.Errorf("decode conditions: %w", err)
		}
	}
	if len(allergies) > 0 {
		if err := json.Unmarshal(allergies, &u.Health.Allergies); err != nil {
			return users.User{}, fmt.Errorf("decode allergies: %w", err)
		}
	}
	if len(contact) > 0 {
		var c contactRow
		if err := json.Unmarshal(contact, &c); err != nil {
			return users.User{}, fmt.Errorf("decode emergency contact: %w", err)
		}
		u.Health.EmergencyContact = users.EmergencyContact{Name: c.Name, Phone: c.Phone, Relationship: c.Relationship}
	}
	return u, nil
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
