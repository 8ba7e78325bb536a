package postgresql

import (
	"context"
	"fmt"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const appointmentColumns = `id, patient_id, weekday, calendar_week, visit_type, employee_id,
	tour_employee_id, origin_employee_id, area, time, info, duration, created_at, updated_at`

type appointmentRepositoryImpl struct {
	db *database.DB
}

func NewAppointmentRepository(db *database.DB) tour.AppointmentRepository {
	return &appointmentRepositoryImpl{db: db}
}

// GetByID implements tour.AppointmentRepository.
func (a *appointmentRepositoryImpl) GetByID(ctx context.Context, id int64) (tour.Appointment, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	appt, err := scanAppointment(q.QueryRow(ctx, query, id))
	if err != nil {
		return tour.Appointment{}, err
	}
	return appt, nil
}

// ListByWeekday implements tour.AppointmentRepository.
func (a *appointmentRepositoryImpl) ListByWeekday(ctx context.Context, weekday tour.Weekday, calendarWeek int) ([]tour.Appointment, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE weekday = $1 AND ($2 = 0 OR calendar_week = $2)
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, string(weekday), calendarWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []tour.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return appointments, nil
}

func scanAppointment(row pgx.Row) (tour.Appointment, error) {
	var appt tour.Appointment
	var weekday, visitType string
	err := row.Scan(
		&appt.ID, &appt.PatientID, &weekday, &appt.CalendarWeek, &visitType, &appt.EmployeeID,
		&appt.TourEmployeeID, &appt.OriginEmployeeID, &appt.Area, &appt.Time, &appt.Info, &appt.Duration,
		&appt.CreatedAt, &appt.UpdatedAt,
	)
	if err != nil {
		return tour.Appointment{}, err
	}
	appt.Weekday = tour.Weekday(weekday)
	appt.VisitType = tour.VisitType(visitType)
	return appt, nil
}
