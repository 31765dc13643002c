package database

import (
	"context"
	"fmt"

	"parkwise/internal/models"
)

// SaveFacility stores a snapshot of the facility in the user's saved
// list. Saving the same facility twice is a no-op.
func (db *DB) SaveFacility(ctx context.Context, userID int64, facility *models.Facility) error {
	query := `INSERT OR IGNORE INTO saved_facilities (user_id, facility_id, name, address, distance, rating, car_rate, bike_rate)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		userID,
		facility.ID,
		facility.Name,
		facility.Address,
		facility.Distance,
		facility.Rating,
		facility.CarRate,
		facility.BikeRate,
	)
	if err != nil {
		return fmt.Errorf("failed to save facility: %w", err)
	}
	return nil
}

func (db *DB) UnsaveFacility(ctx context.Context, userID, facilityID int64) error {
	query := `DELETE FROM saved_facilities WHERE user_id = ? AND facility_id = ?`
	_, err := db.ExecContext(ctx, query, userID, facilityID)
	if err != nil {
		return fmt.Errorf("failed to unsave facility: %w", err)
	}
	return nil
}

func (db *DB) IsFacilitySaved(ctx context.Context, userID, facilityID int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM saved_facilities WHERE user_id = ? AND facility_id = ?`
	if err := db.QueryRowContext(ctx, query, userID, facilityID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check saved facility: %w", err)
	}
	return count > 0, nil
}

func (db *DB) GetSavedFacilities(ctx context.Context, userID int64) ([]*models.Facility, error) {
	query := `SELECT facility_id, name, address, distance, rating, car_rate, bike_rate
              FROM saved_facilities WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get saved facilities: %w", err)
	}
	defer rows.Close()

	var facilities []*models.Facility
	for rows.Next() {
		f := &models.Facility{}
		err := rows.Scan(&f.ID, &f.Name, &f.Address, &f.Distance, &f.Rating, &f.CarRate, &f.BikeRate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved facility: %w", err)
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}
