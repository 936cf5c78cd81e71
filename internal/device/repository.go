package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/database"
)

// idPrefix marks device identifiers.
const idPrefix = "dev-"

// Repository defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
//
// Errors other than ErrDeviceNotFound wrap ErrUnavailable, except errors
// returned by an UpdateByID mutator, which are passed through unchanged.
type Repository interface {
	// Insert stores a new device, assigning its ID and timestamps.
	Insert(ctx context.Context, d *Device) error

	// GetByID retrieves a device by its unique identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// ListByOwner retrieves every device owned by ownerID.
	ListByOwner(ctx context.Context, ownerID string) ([]Device, error)

	// List retrieves devices matching the stored-field parts of filter.
	// Filter.Town is not applied here.
	List(ctx context.Context, filter Filter) ([]Device, error)

	// UpdateByID loads the device, applies mutate and stores the result
	// atomically. ID, OwnerID and CreatedAt cannot be changed by mutate.
	// Returns ErrDeviceNotFound if the device does not exist.
	UpdateByID(ctx context.Context, id string, mutate func(*Device) error) (*Device, error)

	// DeleteByID removes a device by ID.
	// Returns ErrDeviceNotFound if the device does not exist.
	DeleteByID(ctx context.Context, id string) error
}

// SQLiteRepository stores each device as a JSON document in the devices table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open, migrated SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

// Insert stores a new device.
func (r *SQLiteRepository) Insert(ctx context.Context, d *Device) error {
	if d.ID == "" {
		d.ID = idPrefix + uuid.NewString()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	if d.Images == nil {
		d.Images = []Image{}
	}

	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshalling device: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO devices (id, owner_id, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.OwnerID, string(doc),
		d.CreatedAt.Format(time.RFC3339Nano), d.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return unavailable("inserting device", err)
	}
	return nil
}

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	d, err := getDocument(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListByOwner retrieves every device owned by ownerID, oldest first.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]Device, error) {
	return r.queryDocuments(ctx,
		`SELECT document FROM devices WHERE owner_id = ? ORDER BY created_at, id`,
		ownerID,
	)
}

// List retrieves devices matching filter, oldest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]Device, error) {
	var conditions []string
	var args []any

	if filter.Manufacturer != "" {
		conditions = append(conditions, "json_extract(document, '$.manufacturer') = ? COLLATE NOCASE")
		args = append(args, filter.Manufacturer)
	}
	if filter.Condition != "" {
		conditions = append(conditions, "json_extract(document, '$.condition') = ? COLLATE NOCASE")
		args = append(args, filter.Condition)
	}
	if filter.AvailableOnly {
		conditions = append(conditions, "json_extract(document, '$.isInRent') = 0")
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, "json_extract(document, '$.price') >= ?")
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, "json_extract(document, '$.price') <= ?")
		args = append(args, *filter.MaxPrice)
	}

	query := "SELECT document FROM devices"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"

	return r.queryDocuments(ctx, query, args...)
}

// UpdateByID applies mutate to the stored device inside one transaction.
func (r *SQLiteRepository) UpdateByID(ctx context.Context, id string, mutate func(*Device) error) (*Device, error) {
	var updated *Device

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getDocument(ctx, tx, id)
		if err != nil {
			return err
		}

		next := current.DeepCopy()
		if err := mutate(next); err != nil {
			return err
		}
		next.ID = current.ID
		next.OwnerID = current.OwnerID
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = time.Now().UTC()
		if next.Images == nil {
			next.Images = []Image{}
		}

		doc, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshalling device: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE devices SET document = ?, updated_at = ? WHERE id = ?`,
			string(doc), next.UpdatedAt.Format(time.RFC3339Nano), id,
		)
		if err != nil {
			return unavailable("updating device", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return unavailable("checking rows affected", err)
		}
		if rowsAffected == 0 {
			return ErrDeviceNotFound
		}

		updated = next
		return nil
	})
	if err != nil {
		var known bool
		for _, sentinel := range []error{ErrDeviceNotFound, ErrForbidden, ErrBadRequest, ErrUnavailable} {
			if errors.Is(err, sentinel) {
				known = true
				break
			}
		}
		if !known {
			return nil, unavailable("updating device", err)
		}
		return nil, err
	}
	return updated, nil
}

// DeleteByID removes a device by ID.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return unavailable("deleting device", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("checking rows affected", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getDocument(ctx context.Context, q queryer, id string) (*Device, error) {
	var doc string
	err := q.QueryRowContext(ctx, `SELECT document FROM devices WHERE id = ?`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, unavailable("querying device by id", err)
	}

	var d Device
	if err := json.Unmarshal([]byte(doc), &d); err != nil {
		return nil, unavailable("decoding device document", err)
	}
	return &d, nil
}

func (r *SQLiteRepository) queryDocuments(ctx context.Context, query string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("querying devices", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, unavailable("scanning device", err)
		}
		var d Device
		if err := json.Unmarshal([]byte(doc), &d); err != nil {
			return nil, unavailable("decoding device document", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating devices", err)
	}
	return devices, nil
}
