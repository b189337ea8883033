// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - IngestOrchestrator: segment, embed and upsert runs over the vector index
//   - SettingsService: layered configuration with validation
//   - RunHistoryService: read access to the run ledger
//
// Services are pure Go with no CGO or external adapter imports.
package services
