// Package aggregates declares the marketplace write boundaries: accounts,
// catalog, carts, orders and returns. Callers depend on these interfaces and
// the Error codes here, never on the gorm-backed implementations.
package aggregates
