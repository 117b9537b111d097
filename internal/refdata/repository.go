package refdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists reference items across the fixed set of tables.
type Repository interface {
	List(ctx context.Context, kind Kind) ([]Item, error)
	Get(ctx context.Context, kind Kind, id int64) (Item, error)
	Create(ctx context.Context, kind Kind, name string) (Item, error)
	Update(ctx context.Context, kind Kind, id int64, name string) (Item, error)
	Delete(ctx context.Context, kind Kind, id int64) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed reference repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns all items of a kind ordered by id.
func (r *PostgresRepository) List(ctx context.Context, kind Kind) ([]Item, error) {
	table, err := kind.Table()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT id, name, created_at, updated_at FROM %s ORDER BY id`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Get fetches a single item.
func (r *PostgresRepository) Get(ctx context.Context, kind Kind, id int64) (Item, error) {
	table, err := kind.Table()
	if err != nil {
		return Item{}, err
	}
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT id, name, created_at, updated_at FROM %s WHERE id = $1`, table), id)
	return scanItem(row)
}

// Create inserts a new item.
func (r *PostgresRepository) Create(ctx context.Context, kind Kind, name string) (Item, error) {
	table, err := kind.Table()
	if err != nil {
		return Item{}, err
	}
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) RETURNING id, name, created_at, updated_at`, table), name)
	item, err := scanItem(row)
	if isUniqueViolation(err) {
		return Item{}, ErrDuplicateName
	}
	return item, err
}

// Update renames an item.
func (r *PostgresRepository) Update(ctx context.Context, kind Kind, id int64, name string) (Item, error) {
	table, err := kind.Table()
	if err != nil {
		return Item{}, err
	}
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`UPDATE %s SET name = $1, updated_at = now() WHERE id = $2 RETURNING id, name, created_at, updated_at`, table),
		name, id)
	item, err := scanItem(row)
	if isUniqueViolation(err) {
		return Item{}, ErrDuplicateName
	}
	return item, err
}

// Delete removes an item.
func (r *PostgresRepository) Delete(ctx context.Context, kind Kind, id int64) error {
	table, err := kind.Table()
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (Item, error) {
	var (
		item      Item
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&item.ID, &item.Name, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, err
	}
	item.CreatedAt = createdAt.UTC()
	item.UpdatedAt = updatedAt.UTC()
	return item, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
