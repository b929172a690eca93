package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/treelife/tree-sapling-reservation/internal/model"
)

// PersonRepo manages persistence for persons.
type PersonRepo struct {
	db *sql.DB
}

// NewPersonRepo returns a new PersonRepo bound to the given database.
func NewPersonRepo(db *sql.DB) *PersonRepo { return &PersonRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *PersonRepo) DB() *sql.DB { return r.db }

const personColumns = `id, first_name, last_name, email, phone, ordered_tree, picture_filename, created_at, updated_at`

// scanPerson reads one persons row from a row scanner shared by
// QueryRow and Query result sets.
func scanPerson(scan func(dest ...interface{}) error) (*model.Person, error) {
	var p model.Person
	var lastName, email, phone, picture sql.NullString
	var orderedTree sql.NullInt64
	if err := scan(
		&p.ID, &p.FirstName, &lastName, &email, &phone,
		&orderedTree, &picture, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lastName.Valid {
		v := lastName.String
		p.LastName = &v
	}
	if email.Valid {
		v := email.String
		p.Email = &v
	}
	if phone.Valid {
		v := phone.String
		p.Phone = &v
	}
	if orderedTree.Valid {
		v := uint64(orderedTree.Int64)
		p.OrderedTree = &v
	}
	if picture.Valid {
		v := picture.String
		p.PictureFilename = &v
	}
	return &p, nil
}

// Create inserts a new person and returns the full created row.
// Emails are normalized to lower case before insertion; a duplicate
// email surfaces as ErrEmailExists via the MySQL 1062 duplicate-key
// error.
func (r *PersonRepo) Create(ctx context.Context, firstName string, lastName, email, phone *string) (*model.Person, error) {
	if email != nil {
		norm := strings.ToLower(strings.TrimSpace(*email))
		email = &norm
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO persons (first_name, last_name, email, phone) VALUES (?, ?, ?, ?)`,
		firstName, lastName, email, phone)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	// Query back the full row to populate timestamps and defaults.
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a person by id.  Returns ErrPersonNotFound when no
// row matches.
func (r *PersonRepo) GetByID(ctx context.Context, id uint64) (*model.Person, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = ?`, id)
	p, err := scanPerson(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrPersonNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListAll returns all persons ordered by id.
func (r *PersonRepo) ListAll(ctx context.Context) ([]model.Person, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+personColumns+` FROM persons ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	persons := make([]model.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows.Scan)
		if err != nil {
			return nil, err
		}
		persons = append(persons, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return persons, nil
}

// EmailExists reports whether a person with the given email is
// already registered.  The email is normalized the same way Create
// normalizes it.
func (r *PersonRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM persons WHERE email = ?)`, email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// SetPictureFilename stores the opaque picture key on the person.
// Returns ErrPersonNotFound when the person does not exist.
func (r *PersonRepo) SetPictureFilename(ctx context.Context, id uint64, filename string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE persons SET picture_filename = ? WHERE id = ?`, filename, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "no such person" from "same filename written
		// twice": affected-rows is 0 in both cases on MySQL, so check
		// existence explicitly.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// GetForUpdateTx fetches a person within the given transaction while
// holding an exclusive row lock.  Returns (nil, nil) when the row
// does not exist.
func (r *PersonRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Person, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = ? FOR UPDATE`, id)
	p, err := scanPerson(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetTx fetches a person within the given transaction without taking
// a lock.  Returns (nil, nil) when the row does not exist.
func (r *PersonRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Person, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = ?`, id)
	p, err := scanPerson(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SetOrderedTreeTx sets or clears (nil) the person's reservation
// within the given transaction.  The caller must already hold the
// person's row lock.
func (r *PersonRepo) SetOrderedTreeTx(ctx context.Context, tx *sql.Tx, id uint64, treeID *uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE persons SET ordered_tree = ? WHERE id = ?`, treeID, id)
	return err
}
