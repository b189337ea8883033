// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Segmenter: Splits document text into chunks
//   - EmbeddingService: Turns chunk texts into vectors (OpenAI, Ollama)
//   - VectorIndex: Collection reset and record upsert (Qdrant, memory)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the orchestrator degrades gracefully:
//
//   - DocumentSource: Discovery for IngestAll and change watching for watch mode
//   - RunStore: Ingestion run ledger
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
