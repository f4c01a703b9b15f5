// Package dashboard serves the vehicle registration statistics: it loads
// CAR_REGIST_SIDO into memory, keeps it for a fixed TTL and renders filtered
// views of it.
package dashboard

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AlfredBerg/regsido/internal/models"
)

const selectRegistrations = `SELECT car_type, usage_type, sido, sigungu, reg_date, count
FROM CAR_REGIST_SIDO
ORDER BY car_type ASC, usage_type ASC`

// Loader returns the whole registration table.
type Loader interface {
	LoadRegistrations(ctx context.Context) ([]models.Registration, error)
}

// Repository reads CAR_REGIST_SIDO. It never writes to it.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) LoadRegistrations(ctx context.Context) ([]models.Registration, error) {
	rows, err := r.db.QueryContext(ctx, selectRegistrations)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	var out []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.CarType, &reg.UsageType, &reg.Sido, &reg.Sigungu, &reg.RegDate, &reg.Count); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		reg.DeriveDate()
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read registrations: %w", err)
	}
	return out, nil
}
