package repository

import (
	"context"
	"database/sql"

	"github.com/treelife/tree-sapling-reservation/internal/model"
)

// TreeRepo manages persistence for trees.  Trees are pre-provisioned
// seed data: the application only reads them and moves the
// persons_ordered counter, it never creates or deletes varieties.
type TreeRepo struct {
	db *sql.DB
}

// NewTreeRepo returns a new TreeRepo bound to the given database.
func NewTreeRepo(db *sql.DB) *TreeRepo { return &TreeRepo{db: db} }

const treeColumns = `id, name, stock_available, persons_ordered, created_at, updated_at`

func scanTree(scan func(dest ...interface{}) error) (*model.Tree, error) {
	var t model.Tree
	if err := scan(
		&t.ID, &t.Name, &t.StockAvailable, &t.PersonsOrdered,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID fetches a tree by id.  Returns ErrTreeNotFound when no row
// matches.
func (r *TreeRepo) GetByID(ctx context.Context, id uint64) (*model.Tree, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+treeColumns+` FROM trees WHERE id = ?`, id)
	t, err := scanTree(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrTreeNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListAvailable returns all trees with remaining stock, ordered by id.
func (r *TreeRepo) ListAvailable(ctx context.Context) ([]model.Tree, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+treeColumns+` FROM trees WHERE persons_ordered < stock_available ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	trees := make([]model.Tree, 0)
	for rows.Next() {
		t, err := scanTree(rows.Scan)
		if err != nil {
			return nil, err
		}
		trees = append(trees, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trees, nil
}

// GetByNameForUpdateTx fetches a tree by its unique name within the
// given transaction while holding an exclusive row lock.  Returns
// (nil, nil) when the row does not exist.
func (r *TreeRepo) GetByNameForUpdateTx(ctx context.Context, tx *sql.Tx, name string) (*model.Tree, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+treeColumns+` FROM trees WHERE name = ? FOR UPDATE`, name)
	t, err := scanTree(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByIDForUpdateTx fetches a tree by id within the given transaction
// while holding an exclusive row lock.  Returns (nil, nil) when the
// row does not exist.
func (r *TreeRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Tree, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+treeColumns+` FROM trees WHERE id = ? FOR UPDATE`, id)
	t, err := scanTree(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// IncrementOrderedTx increments persons_ordered within the given
// transaction.  The caller must already hold the tree's row lock and
// have verified remaining stock.
func (r *TreeRepo) IncrementOrderedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE trees SET persons_ordered = persons_ordered + 1 WHERE id = ?`, id)
	return err
}

// DecrementOrderedTx decrements persons_ordered within the given
// transaction, floored at zero so a prior inconsistency can never
// drive the counter negative.  The guard lives in the WHERE clause
// because persons_ordered is unsigned and must not underflow.
func (r *TreeRepo) DecrementOrderedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE trees SET persons_ordered = persons_ordered - 1 WHERE id = ? AND persons_ordered > 0`, id)
	return err
}
