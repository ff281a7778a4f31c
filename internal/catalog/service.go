package catalog

import (
	"context"
	"log/slog"
	"strings"

	"packline/internal/domain"
	"packline/internal/logging"
)

// Store is the persistence surface the catalog needs.
type Store interface {
	GetProduct(ctx context.Context, code string) (domain.Product, error)
	ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) error
	UpdateProduct(ctx context.Context, code, name, species string) error
	UpsertProduct(ctx context.Context, product domain.Product) error
	ChangeProductCode(ctx context.Context, oldCode, newCode string) error
	SetProductState(ctx context.Context, code string, state domain.ProductState) error
	DeleteProductIfUnused(ctx context.Context, code string) error
	CountPiecesForProduct(ctx context.Context, code string) (int, error)
}

// Lookup resolves a product code for capture.
type Lookup interface {
	Active(ctx context.Context, code string) (domain.Product, error)
}

// Service administers products.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logging.NewComponentLogger(logger, "catalog")}
}

// Active returns the product for code, failing when it is missing or
// deactivated.
func (s *Service) Active(ctx context.Context, code string) (domain.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Product{}, domain.Fail(domain.ErrEmptyCode, "lookup product", "")
	}
	product, err := s.store.GetProduct(ctx, code)
	if err != nil {
		return domain.Product{}, err
	}
	if !product.Active() {
		return domain.Product{}, domain.Fail(domain.ErrProductInactive, "lookup product", "%s (%s)", product.Name, product.Code)
	}
	return product, nil
}

// Get returns a product regardless of state.
func (s *Service) Get(ctx context.Context, code string) (domain.Product, error) {
	return s.store.GetProduct(ctx, strings.TrimSpace(code))
}

// List returns active products, plus inactive ones when includeInactive is set.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	return s.store.ListProducts(ctx, includeInactive)
}

// Create adds a new product. Duplicate codes are rejected.
func (s *Service) Create(ctx context.Context, code, name, species string) (domain.Product, error) {
	product, err := domain.NewProduct(code, name, species)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}
	s.logger.Info("product created", logging.String("code", product.Code), logging.String("name", product.Name))
	return product, nil
}

// Update changes name and species of an existing product.
func (s *Service) Update(ctx context.Context, code, name, species string) (domain.Product, error) {
	product, err := domain.NewProduct(code, name, species)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.store.UpdateProduct(ctx, product.Code, product.Name, product.Species); err != nil {
		return domain.Product{}, err
	}
	s.logger.Info("product updated", logging.String("code", product.Code))
	return s.store.GetProduct(ctx, product.Code)
}

// Upsert creates or updates a product in one step.
func (s *Service) Upsert(ctx context.Context, code, name, species string) (domain.Product, error) {
	product, err := domain.NewProduct(code, name, species)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.store.UpsertProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return s.store.GetProduct(ctx, product.Code)
}

// Rename changes a product code. Codes with captured pieces are frozen.
func (s *Service) Rename(ctx context.Context, oldCode, newCode string) (domain.Product, error) {
	oldCode = strings.TrimSpace(oldCode)
	newCode = strings.TrimSpace(newCode)
	if oldCode == "" || newCode == "" {
		return domain.Product{}, domain.Fail(domain.ErrEmptyCode, "change product code", "")
	}
	if err := s.store.ChangeProductCode(ctx, oldCode, newCode); err != nil {
		return domain.Product{}, err
	}
	s.logger.Info("product code changed", logging.String("old_code", oldCode), logging.String("code", newCode))
	return s.store.GetProduct(ctx, newCode)
}

// Deactivate hides a product from capture.
func (s *Service) Deactivate(ctx context.Context, code string) error {
	return s.setState(ctx, code, domain.ProductInactive)
}

// Reactivate makes a product capturable again.
func (s *Service) Reactivate(ctx context.Context, code string) error {
	return s.setState(ctx, code, domain.ProductActive)
}

func (s *Service) setState(ctx context.Context, code string, state domain.ProductState) error {
	code = strings.TrimSpace(code)
	if err := s.store.SetProductState(ctx, code, state); err != nil {
		return err
	}
	s.logger.Info("product state changed", logging.String("code", code), logging.String("state", string(state)))
	return nil
}

// Delete removes a product that no piece references.
func (s *Service) Delete(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if err := s.store.DeleteProductIfUnused(ctx, code); err != nil {
		return err
	}
	s.logger.Info("product deleted", logging.String("code", code))
	return nil
}

// Usage counts the pieces captured under a product code.
func (s *Service) Usage(ctx context.Context, code string) (int, error) {
	return s.store.CountPiecesForProduct(ctx, strings.TrimSpace(code))
}
