// Package textutil provides the small text helpers shared by the query
// planner, the pool indexer, and the asset store.
//
// The primary use cases are:
//   - Tokenizing catalog titles into lowercase, accent-folded search terms
//   - Canonicalising category labels so "sports", "SPORTS" and " Sports " agree
//   - Sanitizing tokens for safe use inside asset filenames
package textutil
