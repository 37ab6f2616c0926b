package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bot-dashboard/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

const (
	DefaultPage    = 1
	DefaultPerPage = 50
	MaxPerPage     = 100
)

// ProductFilter narrows a product listing. Zero values mean "no filter".
type ProductFilter struct {
	Status domain.ProductStatus
	Search string
}

// Pagination is a 1-based page request
type Pagination struct {
	Page    int
	PerPage int
}

// Normalize fills defaults and clamps PerPage to MaxPerPage
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset is the number of rows skipped before this page
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter, page Pagination) ([]*domain.Product, int, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status domain.ProductStatus, now time.Time) (int, error)
	CountEndingWithin(ctx context.Context, from, to time.Time) (int, error)
	RefreshStatuses(ctx context.Context, now time.Time) (int64, error)
}

const productColumns = `id, name, description, bot_username, website_link, contract_months,
		contract_start_date, contract_end_date, is_renewed, status,
		customer_telegram, customer_link, created_at, updated_at`

// statusCase mirrors domain.DeriveStatus: $1 is now, $2 is now + (ExpiringSoonDays+1) days.
const statusCase = `CASE
		WHEN contract_end_date < $1 THEN 'Expired'
		WHEN contract_end_date < $2 THEN 'ExpiringSoon'
		ELSE 'Active'
	END`

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a Postgres-backed ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var status string
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.BotUsername,
		&product.WebsiteLink,
		&product.ContractMonths,
		&product.ContractStartDate,
		&product.ContractEndDate,
		&product.IsRenewed,
		&status,
		&product.CustomerTelegram,
		&product.CustomerLink,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.Status = domain.ProductStatus(status)
	product.ContractStartDate = product.ContractStartDate.UTC()
	product.ContractEndDate = product.ContractEndDate.UTC()
	product.CreatedAt = product.CreatedAt.UTC()
	product.UpdatedAt = product.UpdatedAt.UTC()
	return product, nil
}

// Create inserts a new product, assigning an ID when none is set
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.BotUsername,
		product.WebsiteLink,
		product.ContractMonths,
		product.ContractStartDate,
		product.ContractEndDate,
		product.IsRenewed,
		string(product.Status),
		product.CustomerTelegram,
		product.CustomerLink,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update overwrites every mutable column of an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, bot_username = $4, website_link = $5,
		    contract_months = $6, contract_start_date = $7, contract_end_date = $8,
		    is_renewed = $9, status = $10, customer_telegram = $11, customer_link = $12,
		    updated_at = $13
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.BotUsername,
		product.WebsiteLink,
		product.ContractMonths,
		product.ContractStartDate,
		product.ContractEndDate,
		product.IsRenewed,
		string(product.Status),
		product.CustomerTelegram,
		product.CustomerLink,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product; it reports false when no row matched
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List retrieves a filtered page of products, newest first
func (r *productRepository) List(ctx context.Context, filter ProductFilter, page Pagination) ([]*domain.Product, int, error) {
	page = page.Normalize()

	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(filter.Status))
		argIndex++
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf(
			`(name ILIKE $%[1]d ESCAPE '\' OR description ILIKE $%[1]d ESCAPE '\'
			  OR customer_telegram ILIKE $%[1]d ESCAPE '\' OR bot_username ILIKE $%[1]d ESCAPE '\')`,
			argIndex,
		))
		args = append(args, "%"+escapeLike(search)+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY created_at DESC, id ASC
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, argIndex, argIndex+1)

	args = append(args, page.PerPage, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// Count returns the number of stored products
func (r *productRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// CountByStatus counts products whose status at now equals status. The stored
// column is ignored since it can lag until the next refresh sweep.
func (r *productRepository) CountByStatus(ctx context.Context, status domain.ProductStatus, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM products WHERE ` + statusCase + ` = $3`

	var total int
	err := r.db.QueryRowContext(ctx, query, now, expiringSoonLimit(now), string(status)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count products by status: %w", err)
	}
	return total, nil
}

// CountEndingWithin counts products whose contract ends in (from, to]
func (r *productRepository) CountEndingWithin(ctx context.Context, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM products
		WHERE contract_end_date > $1 AND contract_end_date <= $2
	`

	var total int
	if err := r.db.QueryRowContext(ctx, query, from, to).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count expiring products: %w", err)
	}
	return total, nil
}

// RefreshStatuses rewrites stored statuses that no longer match the contract clock at now
func (r *productRepository) RefreshStatuses(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE products
		SET status = ` + statusCase + `
		WHERE status <> ` + statusCase

	result, err := r.db.ExecContext(ctx, query, now, expiringSoonLimit(now))
	if err != nil {
		return 0, fmt.Errorf("failed to refresh product statuses: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// expiringSoonLimit is the $2 bound of statusCase
func expiringSoonLimit(now time.Time) time.Time {
	return now.Add(time.Duration(domain.ExpiringSoonDays+1) * 24 * time.Hour)
}

// escapeLike escapes LIKE metacharacters so the search term matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
