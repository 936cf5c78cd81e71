package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qrqwqeqt/GoF-Patt/internal/device"
)

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

// SQLiteUserRepository implements UserRepository using SQLite.
// It also serves as the device package's owner directory.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = `id, name, surname, email, password_hash, phone_number, region, town, street,
	house_number, apartment_number, floor_number, user_type, is_verified, registration_date, updated_at`

// Create inserts a new account. The ID is generated if empty.
// Returns ErrEmailExists if the email is already registered.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = "usr-" + uuid.NewString()
	}
	if user.UserType == "" {
		user.UserType = UserTypeRegular
	}

	now := time.Now().UTC().Truncate(time.Second)
	user.RegistrationDate = now
	user.UpdatedAt = now
	stamp := now.Format(time.RFC3339)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Surname, user.Email, user.PasswordHash,
		user.PhoneNumber, user.Region, user.Town, user.Street,
		user.HouseNumber, user.ApartmentNumber, user.FloorNumber,
		string(user.UserType), boolToInt(user.IsVerified), stamp, stamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their unique ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
}

// Update stores the profile fields of user. The password hash, tier and
// registration date are not touched.
func (r *SQLiteUserRepository) Update(ctx context.Context, user *User) error {
	now := time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, surname = ?, email = ?, phone_number = ?, region = ?, town = ?,
		 street = ?, house_number = ?, apartment_number = ?, floor_number = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name, user.Surname, user.Email, user.PhoneNumber, user.Region, user.Town,
		user.Street, user.HouseNumber, user.ApartmentNumber, user.FloorNumber,
		now.Format(time.RFC3339), user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("updating user: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 { //nolint:errcheck // always succeeds on SQLite
		return ErrUserNotFound
	}
	user.UpdatedAt = now
	return nil
}

// UpdatePassword changes a user's password hash.
func (r *SQLiteUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 { //nolint:errcheck // always succeeds on SQLite
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user account by ID.
func (r *SQLiteUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 { //nolint:errcheck // always succeeds on SQLite
		return ErrUserNotFound
	}
	return nil
}

// Owners resolves user IDs to their public owner profiles in one query.
// Unknown IDs are absent from the result.
func (r *SQLiteUserRepository) Owners(ctx context.Context, ids []string) (map[string]device.Owner, error) {
	owners := make(map[string]device.Owner, len(ids))
	if len(ids) == 0 {
		return owners, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, surname, phone_number, town, street, region FROM users WHERE id IN ("+placeholders+")", //nolint:gosec // placeholders only
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying owners: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o device.Owner
		if err := rows.Scan(&o.ID, &o.Name, &o.Surname, &o.PhoneNumber, &o.Town, &o.Street, &o.Region); err != nil {
			return nil, fmt.Errorf("scanning owner: %w", err)
		}
		owners[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating owners: %w", err)
	}
	return owners, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var userType, registered, updated string
	var verified int

	err := row.Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.PasswordHash,
		&u.PhoneNumber, &u.Region, &u.Town, &u.Street,
		&u.HouseNumber, &u.ApartmentNumber, &u.FloorNumber,
		&userType, &verified, &registered, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.UserType = UserType(userType)
	u.IsVerified = verified != 0
	u.RegistrationDate, _ = time.Parse(time.RFC3339, registered) //nolint:errcheck // format is controlled
	u.UpdatedAt, _ = time.Parse(time.RFC3339, updated)           //nolint:errcheck // format is controlled

	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
