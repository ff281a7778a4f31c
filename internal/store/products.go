package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"packline/internal/domain"
)

const productColumns = "code, name, species, state"

// GetProduct fetches a catalog entry in any state.
func (s *Store) GetProduct(ctx context.Context, code string) (domain.Product, error) {
	ctx = ensureContext(ctx)
	return getProduct(ctx, s.db, strings.TrimSpace(code))
}

func getProduct(ctx context.Context, q queryer, code string) (domain.Product, error) {
	row := q.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE code = ?", code)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.Fail(domain.ErrProductNotFound, "get product", "code %q", code)
		}
		return domain.Product{}, fmt.Errorf("get product %q: %w", code, err)
	}
	return product, nil
}

// ListProducts returns the catalog ordered by code.
func (s *Store) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + productColumns + " FROM products"
	args := []any{}
	if !includeInactive {
		query += " WHERE state = ?"
		args = append(args, string(domain.ProductActive))
	}
	query += " ORDER BY code ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// CreateProduct inserts a new active catalog entry.
func (s *Store) CreateProduct(ctx context.Context, product domain.Product) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := getProduct(ctx, tx, product.Code); err == nil {
			return domain.Fail(domain.ErrDuplicateProduct, "create product", "code %q", product.Code)
		} else if !errors.Is(err, domain.ErrProductNotFound) {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO products (code, name, species, state) VALUES (?, ?, ?, ?)",
			product.Code, product.Name, product.Species, string(domain.ProductActive),
		); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		return nil
	})
}

// UpdateProduct changes name and species of an existing entry.
func (s *Store) UpdateProduct(ctx context.Context, code, name, species string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := getProduct(ctx, tx, code); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE products SET name = ?, species = ? WHERE code = ?", name, species, code); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		return nil
	})
}

// UpsertProduct inserts an active entry or updates name and species of an
// existing one, leaving its state untouched.
func (s *Store) UpsertProduct(ctx context.Context, product domain.Product) error {
	ctx = ensureContext(ctx)
	_, err := s.execWithRetry(ctx, `
		INSERT INTO products (code, name, species, state) VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET name = excluded.name, species = excluded.species`,
		product.Code, product.Name, product.Species, string(domain.ProductActive),
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// ChangeProductCode renames a product code. Codes referenced by pieces are
// frozen.
func (s *Store) ChangeProductCode(ctx context.Context, oldCode, newCode string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := getProduct(ctx, tx, oldCode); err != nil {
			return err
		}
		if oldCode == newCode {
			return nil
		}
		if _, err := getProduct(ctx, tx, newCode); err == nil {
			return domain.Fail(domain.ErrDuplicateProduct, "change product code", "code %q", newCode)
		} else if !errors.Is(err, domain.ErrProductNotFound) {
			return err
		}
		count, err := countPiecesForProduct(ctx, tx, oldCode)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.Fail(domain.ErrProductInUse, "change product code", "code %q has %d pieces", oldCode, count)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE products SET code = ? WHERE code = ?", newCode, oldCode); err != nil {
			return fmt.Errorf("change product code: %w", err)
		}
		return nil
	})
}

// SetProductState activates or deactivates a product.
func (s *Store) SetProductState(ctx context.Context, code string, state domain.ProductState) error {
	if state != domain.ProductActive && state != domain.ProductInactive {
		return domain.Fail(domain.ErrInvalidState, "set product state", "unknown product state %q", state)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := getProduct(ctx, tx, code); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE products SET state = ? WHERE code = ?", string(state), code); err != nil {
			return fmt.Errorf("set product state: %w", err)
		}
		return nil
	})
}

// DeleteProductIfUnused removes a product no piece references.
func (s *Store) DeleteProductIfUnused(ctx context.Context, code string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := getProduct(ctx, tx, code); err != nil {
			return err
		}
		count, err := countPiecesForProduct(ctx, tx, code)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.Fail(domain.ErrProductInUse, "delete product", "code %q has %d pieces", code, count)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM products WHERE code = ?", code); err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		return nil
	})
}

// CountPiecesForProduct counts pieces captured under a product code.
func (s *Store) CountPiecesForProduct(ctx context.Context, code string) (int, error) {
	ctx = ensureContext(ctx)
	return countPiecesForProduct(ctx, s.db, code)
}

func countPiecesForProduct(ctx context.Context, q queryer, code string) (int, error) {
	var count int
	row := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM pieces WHERE product_code = ?", code)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count product pieces: %w", err)
	}
	return count, nil
}
