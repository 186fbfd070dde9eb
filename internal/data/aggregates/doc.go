// Package aggregates implements the marketplace aggregate contracts.
//
// Every write loads the aggregates it needs fresh inside one transaction, in
// a fixed lock order (order, client, sellers, products), applies the domain
// operation and persists roots through version-checked updates. Order changes
// append outbox rows in the same transaction.
package aggregates
