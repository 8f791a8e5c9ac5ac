package products

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "main/internal/domain/entity/trading"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProductNotFound = errors.New("product not found")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

func (r *Repository) UpsertProduct(ctx context.Context, product *domain.Product) error {
	if product == nil {
		return errors.New("product is nil")
	}
	if product.UPI == "" {
		return errors.New("product UPI is required")
	}
	product.UpdatedAt = time.Now().UTC()

	const query = `
		INSERT INTO products (upi, ticker, name, convention, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (upi) DO UPDATE
		SET ticker=EXCLUDED.ticker,
			name=EXCLUDED.name,
			convention=EXCLUDED.convention,
			updated_at=EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		product.UPI,
		product.Ticker,
		product.Name,
		product.Convention,
		product.UpdatedAt,
	)
	return err
}

func (r *Repository) GetProduct(ctx context.Context, upi string) (*domain.Product, error) {
	const query = `
		SELECT upi, ticker, name, convention, updated_at
		FROM products
		WHERE upi = $1`

	row := r.pool.QueryRow(ctx, query, upi)
	product := &domain.Product{}
	err := row.Scan(&product.UPI, &product.Ticker, &product.Name, &product.Convention, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const query = `
		SELECT upi, ticker, name, convention, updated_at
		FROM products
		ORDER BY ticker ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product := domain.Product{}
		err := rows.Scan(&product.UPI, &product.Ticker, &product.Name, &product.Convention, &product.UpdatedAt)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}
