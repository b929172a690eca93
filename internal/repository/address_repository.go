package repository

import (
	"context"
	"database/sql"

	"github.com/treelife/tree-sapling-reservation/internal/model"
)

// AddressRepo manages persistence for delivery addresses.
type AddressRepo struct {
	db *sql.DB
}

// NewAddressRepo returns a new AddressRepo bound to the given database.
func NewAddressRepo(db *sql.DB) *AddressRepo { return &AddressRepo{db: db} }

const addressColumns = `id, person_id, city, pin_code, state, district, created_at, updated_at`

func scanAddress(scan func(dest ...interface{}) error) (*model.Address, error) {
	var a model.Address
	var city, pin, state, district sql.NullString
	if err := scan(
		&a.ID, &a.PersonID, &city, &pin, &state, &district,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if city.Valid {
		v := city.String
		a.City = &v
	}
	if pin.Valid {
		v := pin.String
		a.PinCode = &v
	}
	if state.Valid {
		v := state.String
		a.State = &v
	}
	if district.Valid {
		v := district.String
		a.District = &v
	}
	return &a, nil
}

// Create inserts an address for a person and returns the full created
// row.
func (r *AddressRepo) Create(ctx context.Context, personID uint64, city, pin, state, district *string) (*model.Address, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO addresses (person_id, city, pin_code, state, district) VALUES (?, ?, ?, ?, ?)`,
		personID, city, pin, state, district)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = ?`, id)
	return scanAddress(row.Scan)
}

// ListByPerson returns all addresses of a person in insertion order.
func (r *AddressRepo) ListByPerson(ctx context.Context, personID uint64) ([]model.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE person_id = ? ORDER BY id`, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	addresses := make([]model.Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows.Scan)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return addresses, nil
}
