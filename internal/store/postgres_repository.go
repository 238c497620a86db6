/**
 * @description
 * This file implements the data access layer for the customers table. It contains
 * all the SQL queries and logic for persisting and retrieving customer records,
 * including the soft-delete scoping that every lookup applies.
 *
 * @dependencies
 * - context, log: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver and connection pool manager.
 * - github.com/google/uuid: For generating customer identifiers at insert time.
 *
 * @notes
 * - This implementation follows the repository pattern, separating data access
 *   concerns from the core business logic in the `app` layer.
 * - A unique violation on cognito_id is classified into ErrDuplicateCognitoID so
 *   callers can distinguish a conflict from an infrastructure fault.
 */

package store

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/winanjuar/kezbek-customer/internal/domain"
)

const uniqueViolationCode = "23505"

// PostgresCustomerRepository is the PostgreSQL implementation of CustomerRepository.
type PostgresCustomerRepository struct {
	db *pgxpool.Pool
}

// NewPostgresCustomerRepository creates a new instance of PostgresCustomerRepository.
func NewPostgresCustomerRepository(db *pgxpool.Pool) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

// EnsureCustomerTable creates the customers table and its secondary index if they do
// not exist yet. Called once at startup.
func (r *PostgresCustomerRepository) EnsureCustomerTable(ctx context.Context) error {
	ddl := `
        CREATE TABLE IF NOT EXISTS customers (
            id UUID PRIMARY KEY,
            cognito_id UUID NOT NULL UNIQUE,
            name TEXT NOT NULL,
            username TEXT NOT NULL,
            email TEXT NOT NULL,
            phone TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            deleted_at TIMESTAMPTZ
        );
        CREATE INDEX IF NOT EXISTS idx_customers_username ON customers (username);
    `
	if _, err := r.db.Exec(ctx, ddl); err != nil {
		return err
	}
	return nil
}

// CreateCustomer inserts a new customer row with a generated internal id. Uniqueness
// of the cognito id is enforced by the storage constraint, not a pre-existence check.
func (r *PostgresCustomerRepository) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*domain.Customer, error) {
	var customer domain.Customer
	query := `
        INSERT INTO customers (id, cognito_id, name, username, email, phone)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, cognito_id, name, username, email, phone, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		uuid.New(),
		params.CognitoID,
		params.Name,
		params.Username,
		params.Email,
		params.Phone,
	).Scan(
		&customer.ID,
		&customer.CognitoID,
		&customer.Name,
		&customer.Username,
		&customer.Email,
		&customer.Phone,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCognitoID
		}
		log.Printf("level=error component=store msg=\"insert customer failed\" cognito_id=%s err=%v", params.CognitoID, err)
		return nil, err
	}
	return &customer, nil
}

// FindByID retrieves a live customer by internal id. Returns (nil, nil) on a miss.
func (r *PostgresCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return r.findOne(ctx, "id", id)
}

// FindByCognitoID retrieves a live customer by cognito id. Returns (nil, nil) on a miss.
func (r *PostgresCustomerRepository) FindByCognitoID(ctx context.Context, cognitoID uuid.UUID) (*domain.Customer, error) {
	return r.findOne(ctx, "cognito_id", cognitoID)
}

// FindByEmail retrieves a live customer by email. Returns (nil, nil) on a miss.
func (r *PostgresCustomerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.findOne(ctx, "email", email)
}

// SoftDeleteByID marks a customer as deleted without removing the row. Subsequent
// lookups no longer see the record.
func (r *PostgresCustomerRepository) SoftDeleteByID(ctx context.Context, id uuid.UUID) error {
	query := `
        UPDATE customers
        SET deleted_at = NOW(), updated_at = NOW()
        WHERE id = $1 AND deleted_at IS NULL
    `
	commandTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		log.Printf("level=error component=store msg=\"soft delete failed\" customer_id=%s err=%v", id, err)
		return err
	}
	if commandTag.RowsAffected() == 0 {
		log.Printf("level=warn component=store msg=\"soft delete matched no live customer\" customer_id=%s", id)
	}
	return nil
}

// findOne runs a single-row lookup keyed by the given column. The column name comes
// from a fixed caller-side set, never user input.
func (r *PostgresCustomerRepository) findOne(ctx context.Context, column string, value interface{}) (*domain.Customer, error) {
	var customer domain.Customer
	query := `
        SELECT id, cognito_id, name, username, email, phone, created_at, updated_at
        FROM customers
        WHERE ` + column + ` = $1 AND deleted_at IS NULL
    `
	err := r.db.QueryRow(ctx, query, value).Scan(
		&customer.ID,
		&customer.CognitoID,
		&customer.Name,
		&customer.Username,
		&customer.Email,
		&customer.Phone,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		log.Printf("level=error component=store msg=\"customer lookup failed\" column=%s err=%v", column, err)
		return nil, err
	}
	return &customer, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return false
}
