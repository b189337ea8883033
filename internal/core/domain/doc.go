// Package domain defines the core entities of the docsync pipeline.
//
// This package is the innermost layer of the hexagonal architecture.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A discovered source document keyed by its relative path
//   - Chunk: A prose or code span produced by the segmenter
//   - IndexRecord: A vector with identifier and payload sent to the index
//   - CollectionSpec: The shape of the collection rebuilt on every run
//   - Run: The ledger entry for one ingestion run
//   - Settings: Resolved application configuration
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
