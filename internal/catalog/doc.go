// Package catalog administers the product list and resolves product codes at
// capture time. Only ACTIVE products can be captured; codes referenced by
// pieces cannot be renamed or deleted.
package catalog
