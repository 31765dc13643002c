package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkwise/internal/models"
)

const bookingColumns = `id, order_id, user_id, facility_id, facility_name, facility_address,
                 option_name, vehicle_type, vehicle_number, scheduled, start_at,
                 duration_hours, base_cents, discount_cents, surcharge_cents, total_cents,
                 status, surveillance, ev_charging, covered, created_at, updated_at`

func scanBooking(row interface {
	Scan(dest ...interface{}) error
}) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.ID, &b.OrderID, &b.UserID, &b.FacilityID, &b.FacilityName, &b.FacilityAddress,
		&b.OptionName, &b.VehicleType, &b.VehicleNumber, &b.Scheduled, &b.StartAt,
		&b.DurationHours, &b.BaseCents, &b.DiscountCents, &b.SurchargeCents, &b.TotalCents,
		&b.Status, &b.Features.Surveillance, &b.Features.EVCharging, &b.Features.Covered,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				order_id, user_id, facility_id, facility_name, facility_address,
				option_name, vehicle_type, vehicle_number, scheduled, start_at,
				duration_hours, base_cents, discount_cents, surcharge_cents, total_cents,
				status, surveillance, ev_charging, covered, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.OrderID,
		booking.UserID,
		booking.FacilityID,
		booking.FacilityName,
		booking.FacilityAddress,
		booking.OptionName,
		booking.VehicleType,
		booking.VehicleNumber,
		booking.Scheduled,
		booking.StartAt,
		booking.DurationHours,
		booking.BaseCents,
		booking.DiscountCents,
		booking.SurchargeCents,
		booking.TotalCents,
		booking.Status,
		booking.Features.Surveillance,
		booking.Features.EVCharging,
		booking.Features.Covered,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now

	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) GetBookingByOrderID(ctx context.Context, orderID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE order_id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by order id: %w", err)
	}
	return booking, nil
}

// GetUserBookings returns the user's bookings, newest first. An empty
// status returns all of them.
func (db *DB) GetUserBookings(ctx context.Context, userID int64, status string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ?`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (db *DB) GetBookingsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE start_at >= ? AND start_at <= ? ORDER BY start_at ASC`
	rows, err := db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) CountBookings(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}
