package postgresql

import (
	"context"
	"fmt"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/pkg/database"
)

type patientRepositoryImpl struct {
	db *database.DB
}

func NewPatientRepository(db *database.DB) tour.PatientRepository {
	return &patientRepositoryImpl{db: db}
}

// ListByIDs implements tour.PatientRepository. Unknown ids are left out.
func (p *patientRepositoryImpl) ListByIDs(ctx context.Context, ids []int64) ([]tour.Patient, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT id, name, street, zip, city, phone1, phone2, latitude, longitude, created_at, updated_at
		FROM patients
		WHERE id = ANY($1)
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []tour.Patient
	for rows.Next() {
		var pt tour.Patient
		err := rows.Scan(
			&pt.ID, &pt.Name, &pt.Street, &pt.Zip, &pt.City, &pt.Phone1, &pt.Phone2,
			&pt.Latitude, &pt.Longitude, &pt.CreatedAt, &pt.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return patients, nil
}
