package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"medication-tracker/internal/domain/catalog"
)

type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

const medicineColumns = `id, name, description, symptoms, created_at, updated_at`

func (r *CatalogRepo) Create(ctx context.Context, m catalog.Medicine) error {
	symptoms, err := json.Marshal(nonNil(m.Symptoms))
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO medicines (`+medicineColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, m.ID, m.Name, m.Description, symptoms, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *CatalogRepo) GetByID(ctx context.Context, id string) (catalog.Medicine, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return catalog.Medicine{}, catalog.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+medicineColumns+` FROM medicines WHERE id = $1`, id)
	m, err := scanMedicine(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Medicine{}, catalog.ErrNotFound
		}
		return catalog.Medicine{}, err
	}
	return m, nil
}

func (r *CatalogRepo) FindByName(ctx context.Context, name string) (catalog.Medicine, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+medicineColumns+`
		FROM medicines
		WHERE lower(name) = lower($1)
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, strings.TrimSpace(name))
	m, err := scanMedicine(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Medicine{}, catalog.ErrNotFound
		}
		return catalog.Medicine{}, err
	}
	return m, nil
}

// List busca por nombre o por síntoma; symptoms es un array JSONB de strings.
func (r *CatalogRepo) List(ctx context.Context, query string) ([]catalog.Medicine, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if q := strings.TrimSpace(query); q != "" {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+medicineColumns+`
			FROM medicines
			WHERE name ILIKE '%' || $1 || '%'
			   OR EXISTS (
				SELECT 1 FROM jsonb_array_elements_text(symptoms) s
				WHERE s ILIKE '%' || $1 || '%'
			   )
			ORDER BY lower(name) ASC
		`, q)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+medicineColumns+`
			FROM medicines
			ORDER BY lower(name) ASC
		`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]catalog.Medicine, 0)
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) Update(ctx context.Context, m catalog.Medicine) error {
	symptoms, err := json.Marshal(nonNil(m.Symptoms))
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE medicines
		SET name = $2, description = $3, symptoms = $4, updated_at = $5
		WHERE id = $1
	`, m.ID, m.Name, m.Description, symptoms, m.UpdatedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (r *CatalogRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func scanMedicine(row rowScanner) (catalog.Medicine, error) {
	var (
		m   catalog.Medicine
		raw []byte
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Description, &raw, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return catalog.Medicine{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &m.Symptoms); err != nil {
			return catalog.Medicine{}, err
		}
	}
	return m, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
