// Package domain defines the core business entities for Docster.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RepositoryRef: A repository at a specific revision
//   - SourceFile: A file discovered in a repository tree
//   - Chunk: A bounded slice of one file's text with stable line offsets
//   - FileDoc: Generated documentation for a single file
//   - RepoDoc: Generated documentation for a whole repository
//   - ChatTurn: One question/answer exchange about a repository
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
