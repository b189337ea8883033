// Package connectors groups the document sources the ingestion pipeline
// can read from. Each subpackage implements driven.DocumentSource for one
// kind of source.
//
// Available sources:
//   - filesystem: recursive discovery of files under a root directory,
//     with fsnotify-based change watching
package connectors
