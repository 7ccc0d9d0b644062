// Package loyalty decides loyalty discounts for sales-document positions.
//
// Given a document snapshot (counterparty plus positions already resolved to
// their product classification) it computes the counterparty's discount
// percent, excludes promotional products, totals the discount in minor
// currency units and assembles the position payload for write-back. The
// package is pure: no I/O, no logging, no shared state.
package loyalty
