package products

import (
	"context"
	"errors"

	domain "main/internal/domain/entity/trading"
	interfaces "main/internal/domain/interfaces"
)

var (
	ErrNilProduct        = errors.New("product is nil")
	ErrMissingUPI        = errors.New("product UPI is required")
	ErrUnknownConvention = errors.New("unknown quoting convention")
)

type Service struct {
	repo interfaces.ProductRepository
}

func NewService(repo interfaces.ProductRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) UpsertProduct(ctx context.Context, product *domain.Product) error {
	if product == nil {
		return ErrNilProduct
	}
	if product.UPI == "" {
		return ErrMissingUPI
	}
	if !product.Convention.Valid() {
		return ErrUnknownConvention
	}
	return s.repo.UpsertProduct(ctx, product)
}

func (s *Service) GetProduct(ctx context.Context, upi string) (*domain.Product, error) {
	if upi == "" {
		return nil, ErrMissingUPI
	}
	return s.repo.GetProduct(ctx, upi)
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) Close() {
	s.repo.Close()
}
