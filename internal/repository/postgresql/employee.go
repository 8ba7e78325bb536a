package postgresql

import (
	"context"
	"fmt"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) tour.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// ListAll implements tour.EmployeeRepository. Inactive employees are
// included so older appointments can still name them.
func (e *employeeRepositoryImpl) ListAll(ctx context.Context) ([]tour.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, first_name, last_name, area, is_active, created_at, updated_at
		FROM employees
		ORDER BY id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []tour.Employee
	for rows.Next() {
		var emp tour.Employee
		err := rows.Scan(
			&emp.ID, &emp.FirstName, &emp.LastName, &emp.Area, &emp.IsActive,
			&emp.CreatedAt, &emp.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}
