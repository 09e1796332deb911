package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the statements used by the repository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const clearCategoryRevenue = `DELETE FROM category_revenue`

const clearStateConcentration = `DELETE FROM state_concentration`

const clearTopCategories = `DELETE FROM top_categories`

func (q *Queries) ClearTables(ctx context.Context) error {
	for _, stmt := range []string{clearCategoryRevenue, clearStateConcentration, clearTopCategories} {
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const insertCategoryRevenue = `INSERT INTO category_revenue (position, category, price, purchased_at) VALUES (?, ?, ?, ?)`

type InsertCategoryRevenueParams struct {
	Position    int64
	Category    string
	Price       string
	PurchasedAt string
}

func (q *Queries) InsertCategoryRevenue(ctx context.Context, arg InsertCategoryRevenueParams) error {
	_, err := q.db.ExecContext(ctx, insertCategoryRevenue, arg.Position, arg.Category, arg.Price, arg.PurchasedAt)
	return err
}

const insertStateConcentration = `INSERT INTO state_concentration (position, state, unique_customers) VALUES (?, ?, ?)`

type InsertStateConcentrationParams struct {
	Position        int64
	State           string
	UniqueCustomers int64
}

func (q *Queries) InsertStateConcentration(ctx context.Context, arg InsertStateConcentrationParams) error {
	_, err := q.db.ExecContext(ctx, insertStateConcentration, arg.Position, arg.State, arg.UniqueCustomers)
	return err
}

const insertTopCategory = `INSERT INTO top_categories (position, category, price) VALUES (?, ?, ?)`

type InsertTopCategoryParams struct {
	Position int64
	Category string
	Price    string
}

func (q *Queries) InsertTopCategory(ctx context.Context, arg InsertTopCategoryParams) error {
	_, err := q.db.ExecContext(ctx, insertTopCategory, arg.Position, arg.Category, arg.Price)
	return err
}

const insertImport = `INSERT INTO imports (id, source, category_rows, state_rows, top_category_rows, imported_at)
VALUES (?, ?, ?, ?, ?, ?)`

type ImportRow struct {
	ID              string
	Source          string
	CategoryRows    int64
	StateRows       int64
	TopCategoryRows int64
	ImportedAt      string
}

func (q *Queries) InsertImport(ctx context.Context, arg ImportRow) error {
	_, err := q.db.ExecContext(ctx, insertImport,
		arg.ID, arg.Source, arg.CategoryRows, arg.StateRows, arg.TopCategoryRows, arg.ImportedAt)
	return err
}

const getImport = `SELECT id, source, category_rows, state_rows, top_category_rows, imported_at
FROM imports WHERE id = ?`

func (q *Queries) GetImport(ctx context.Context, id string) (ImportRow, error) {
	row := q.db.QueryRowContext(ctx, getImport, id)
	var i ImportRow
	err := row.Scan(&i.ID, &i.Source, &i.CategoryRows, &i.StateRows, &i.TopCategoryRows, &i.ImportedAt)
	return i, err
}

const getLastImport = `SELECT id, source, category_rows, state_rows, top_category_rows, imported_at
FROM imports ORDER BY imported_at DESC, rowid DESC LIMIT 1`

func (q *Queries) GetLastImport(ctx context.Context) (ImportRow, error) {
	row := q.db.QueryRowContext(ctx, getLastImport)
	var i ImportRow
	err := row.Scan(&i.ID, &i.Source, &i.CategoryRows, &i.StateRows, &i.TopCategoryRows, &i.ImportedAt)
	return i, err
}

const listCategoryRevenue = `SELECT category, price, purchased_at FROM category_revenue ORDER BY position`

type CategoryRevenueRow struct {
	Category    string
	Price       string
	PurchasedAt string
}

func (q *Queries) ListCategoryRevenue(ctx context.Context) ([]CategoryRevenueRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategoryRevenue)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryRevenueRow
	for rows.Next() {
		var i CategoryRevenueRow
		if err := rows.Scan(&i.Category, &i.Price, &i.PurchasedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listStateConcentration = `SELECT state, unique_customers FROM state_concentration ORDER BY position`

type StateConcentrationRow struct {
	State           string
	UniqueCustomers int64
}

func (q *Queries) ListStateConcentration(ctx context.Context) ([]StateConcentrationRow, error) {
	rows, err := q.db.QueryContext(ctx, listStateConcentration)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StateConcentrationRow
	for rows.Next() {
		var i StateConcentrationRow
		if err := rows.Scan(&i.State, &i.UniqueCustomers); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTopCategories = `SELECT category, price FROM top_categories ORDER BY position`

type TopCategoryRow struct {
	Category string
	Price    string
}

func (q *Queries) ListTopCategories(ctx context.Context) ([]TopCategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listTopCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TopCategoryRow
	for rows.Next() {
		var i TopCategoryRow
		if err := rows.Scan(&i.Category, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
