package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkwise/internal/models"
)

func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, name, phone, email, rating, booking_count, member_since, avatar_url, signed_in, created_at, updated_at
              FROM users WHERE id = ?`

	var user models.User
	var avatarURL sql.NullString
	err := db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Phone,
		&user.Email,
		&user.Rating,
		&user.BookingCount,
		&user.MemberSince,
		&avatarURL,
		&user.SignedIn,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.AvatarURL = avatarURL.String

	return &user, nil
}

func (db *DB) UpsertUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, name, phone, email, rating, booking_count, member_since, avatar_url, signed_in, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  name = excluded.name,
                  phone = excluded.phone,
                  email = excluded.email,
                  rating = excluded.rating,
                  member_since = excluded.member_since,
                  avatar_url = excluded.avatar_url,
                  signed_in = excluded.signed_in,
                  updated_at = excluded.updated_at`

	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Phone,
		user.Email,
		user.Rating,
		user.BookingCount,
		user.MemberSince,
		user.AvatarURL,
		user.SignedIn,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (db *DB) SetUserSignedIn(ctx context.Context, id int64, signedIn bool) error {
	query := `UPDATE users SET signed_in = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, signedIn, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set signed in: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) UpdateUserProfile(ctx context.Context, id int64, name, phone, email, avatarURL string) error {
	query := `UPDATE users SET name = ?, phone = ?, email = ?, avatar_url = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, name, phone, email, avatarURL, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) IncrementBookingCount(ctx context.Context, id int64) error {
	query := `UPDATE users SET booking_count = booking_count + 1, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to increment booking count: %w", err)
	}
	return nil
}
