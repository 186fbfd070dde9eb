// Package marketplace is the transactional core of the marketplace: value
// objects, the Product/Cart/Client/Seller/Order aggregates, the order state
// machine and the per-seller return negotiation.
//
// Nothing here performs I/O. Callers load every aggregate an operation touches
// fresh inside one storage transaction, apply the operation, persist the
// result and commit, or roll back on any returned error. Every method checks
// before it mutates, so a returned error also means no in-memory change.
// Errors are *aggregates.Error values wrapping one of the Err* sentinels.
package marketplace
