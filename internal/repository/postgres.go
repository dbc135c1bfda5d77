package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"

	"github.com/harshita194/sweet-shop/internal/domain"
)

//go:embed schema.sql
var schema string

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(dsn string) (*PostgresRepo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("cannot ping db: %w", err)
	}
	return &PostgresRepo{db: db}, nil
}

func (r *PostgresRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "repo: Migrate")
	}
	return nil
}

func (r *PostgresRepo) CreateUser(ctx context.Context, name, email, passwordHash string, role domain.Role) (*domain.User, error) {
	query := `INSERT INTO users (id, name, email, password_hash, role)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, name, email, password_hash, role, created_at;`
	row := r.db.QueryRowContext(ctx, query, uuid.NewString(), name, email, passwordHash, role)
	u := &domain.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, errors.Wrap(err, "repo: CreateUser")
	}
	return u, nil
}

func (r *PostgresRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = $1;`
	row := r.db.QueryRowContext(ctx, query, email)
	u := &domain.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "repo: GetUserByEmail")
	}
	return u, nil
}

func (r *PostgresRepo) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, name, email, password_hash, role, created_at FROM users WHERE id = $1;`
	row := r.db.QueryRowContext(ctx, query, id)
	u := &domain.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "repo: GetUserByID")
	}
	return u, nil
}

func (r *PostgresRepo) SetUserRole(ctx context.Context, id string, role domain.Role) error {
	query := `UPDATE users SET role = $1 WHERE id = $2;`
	res, err := r.db.ExecContext(ctx, query, role, id)
	if err != nil {
		return errors.Wrap(err, "repo: SetUserRole")
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("no user updated, user_id=%s not found", id)
	}
	return nil
}

func (r *PostgresRepo) SetUserPassword(ctx context.Context, id string, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2;`
	res, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return errors.Wrap(err, "repo: SetUserPassword")
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("no user updated, user_id=%s not found", id)
	}
	return nil
}

func (r *PostgresRepo) CreateSweet(ctx context.Context, name, category string, price float64, quantity int, image string) (*domain.Sweet, error) {
	query := `INSERT INTO sweets (id, name, category, price, quantity, image)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, name, category, price, quantity, image, created_at;`
	row := r.db.QueryRowContext(ctx, query, uuid.NewString(), name, category, price, quantity, image)
	s := &domain.Sweet{}
	if err := scanSweet(row, s); err != nil {
		return nil, errors.Wrap(err, "repo: CreateSweet")
	}
	return s, nil
}

func (r *PostgresRepo) ListSweets(ctx context.Context) ([]domain.Sweet, error) {
	query := `SELECT id, name, category, price, quantity, image, created_at
	          FROM sweets
	          ORDER BY created_at DESC;`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "repo: ListSweets")
	}
	defer rows.Close()

	var res []domain.Sweet
	for rows.Next() {
		var s domain.Sweet
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Quantity, &s.Image, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, nil
}

func (r *PostgresRepo) SearchSweets(ctx context.Context, f domain.SweetFilter) ([]domain.Sweet, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.Name != "" {
		args = append(args, f.Name)
		conds = append(conds, "name ILIKE '%' || $"+strconv.Itoa(len(args))+" || '%'")
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, "category ILIKE '%' || $"+strconv.Itoa(len(args))+" || '%'")
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		conds = append(conds, "price >= $"+strconv.Itoa(len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		conds = append(conds, "price <= $"+strconv.Itoa(len(args)))
	}

	query := `SELECT id, name, category, price, quantity, image, created_at FROM sweets`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC;"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "repo: SearchSweets")
	}
	defer rows.Close()

	var res []domain.Sweet
	for rows.Next() {
		var s domain.Sweet
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Quantity, &s.Image, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, nil
}

func (r *PostgresRepo) GetSweetByID(ctx context.Context, id string) (*domain.Sweet, error) {
	query := `SELECT id, name, category, price, quantity, image, created_at FROM sweets WHERE id = $1;`
	row := r.db.QueryRowContext(ctx, query, id)
	s := &domain.Sweet{}
	if err := scanSweet(row, s); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "repo: GetSweetByID")
	}
	return s, nil
}

func (r *PostgresRepo) UpdateSweet(ctx context.Context, s *domain.Sweet) error {
	query := `UPDATE sweets SET name = $1, category = $2, price = $3, quantity = $4, image = $5 WHERE id = $6;`
	res, err := r.db.ExecContext(ctx, query, s.Name, s.Category, s.Price, s.Quantity, s.Image, s.ID)
	if err != nil {
		return errors.Wrap(err, "repo: UpdateSweet")
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("no sweet updated, sweet_id=%s not found", s.ID)
	}
	return nil
}

// DecrementSweetQuantity atomically takes n units off a sweet's stock.
// The decrement only applies when enough stock exists, so two concurrent
// purchases cannot drive the quantity negative. Returns (nil, nil) when the
// sweet is missing or the stock is insufficient.
func (r *PostgresRepo) DecrementSweetQuantity(ctx context.Context, id string, n int) (*domain.Sweet, error) {
	query := `UPDATE sweets SET quantity = quantity - $1
	          WHERE id = $2 AND quantity >= $1
	          RETURNING id, name, category, price, quantity, image, created_at;`
	row := r.db.QueryRowContext(ctx, query, n, id)
	s := &domain.Sweet{}
	if err := scanSweet(row, s); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "repo: DecrementSweetQuantity")
	}
	return s, nil
}

// IncrementSweetQuantity adds n units of stock. Returns (nil, nil) when the
// sweet is missing.
func (r *PostgresRepo) IncrementSweetQuantity(ctx context.Context, id string, n int) (*domain.Sweet, error) {
	query := `UPDATE sweets SET quantity = quantity + $1
	          WHERE id = $2
	          RETURNING id, name, category, price, quantity, image, created_at;`
	row := r.db.QueryRowContext(ctx, query, n, id)
	s := &domain.Sweet{}
	if err := scanSweet(row, s); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "repo: IncrementSweetQuantity")
	}
	return s, nil
}

// DeleteSweetTx removes a sweet together with its inventory ledger entry.
// Returns false when no sweet with the given id exists.
func (r *PostgresRepo) DeleteSweetTx(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sweets WHERE id = $1;`, id)
	if err != nil {
		_ = tx.Rollback()
		return false, errors.Wrap(err, "repo: DeleteSweetTx")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if rows == 0 {
		_ = tx.Rollback()
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory WHERE sweet_id = $1;`, id); err != nil {
		_ = tx.Rollback()
		return false, errors.Wrap(err, "repo: DeleteSweetTx")
	}
	return true, tx.Commit()
}

func (r *PostgresRepo) ListInventory(ctx context.Context) ([]domain.InventoryRecord, error) {
	query := `SELECT i.id, i.sweet_id, i.quantity, i.updated_at,
	                 s.id, s.name, s.category, s.price, s.quantity, s.image, s.created_at
	          FROM inventory i
	          JOIN sweets s ON s.id = i.sweet_id
	          ORDER BY i.updated_at DESC;`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "repo: ListInventory")
	}
	defer rows.Close()

	var res []domain.InventoryRecord
	for rows.Next() {
		var (
			rec domain.InventoryRecord
			s   domain.Sweet
		)
		if err := rows.Scan(&rec.ID, &rec.SweetID, &rec.Quantity, &rec.UpdatedAt,
			&s.ID, &s.Name, &s.Category, &s.Price, &s.Quantity, &s.Image, &s.CreatedAt); err != nil {
			return nil, err
		}
		rec.Sweet = &s
		res = append(res, rec)
	}
	return res, nil
}

// SetInventory overrides the ledger entry for a sweet with an absolute
// quantity, creating it when absent.
func (r *PostgresRepo) SetInventory(ctx context.Context, sweetID string, quantity int) (*domain.InventoryRecord, error) {
	query := `
        INSERT INTO inventory (id, sweet_id, quantity)
        VALUES ($1, $2, $3)
        ON CONFLICT (sweet_id) DO UPDATE
        SET quantity = EXCLUDED.quantity, updated_at = now()
        RETURNING id, sweet_id, quantity, updated_at;
    `
	row := r.db.QueryRowContext(ctx, query, uuid.NewString(), sweetID, quantity)
	rec := &domain.InventoryRecord{}
	if err := row.Scan(&rec.ID, &rec.SweetID, &rec.Quantity, &rec.UpdatedAt); err != nil {
		return nil, errors.Wrap(err, "repo: SetInventory")
	}
	return rec, nil
}

// AddInventoryDelta accumulates a stock movement into the ledger entry for
// a sweet, creating it when absent.
func (r *PostgresRepo) AddInventoryDelta(ctx context.Context, sweetID string, delta int) error {
	query := `
        INSERT INTO inventory (id, sweet_id, quantity)
        VALUES ($1, $2, $3)
        ON CONFLICT (sweet_id) DO UPDATE
        SET quantity = inventory.quantity + EXCLUDED.quantity, updated_at = now();
    `
	_, err := r.db.ExecContext(ctx, query, uuid.NewString(), sweetID, delta)
	if err != nil {
		return errors.Wrap(err, "repo: AddInventoryDelta")
	}
	return nil
}

func scanSweet(row *sql.Row, s *domain.Sweet) error {
	return row.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Quantity, &s.Image, &s.CreatedAt)
}
