// Package storage stores session documents in a vault directory.
package storage

import "github.com/starford/orbit/internal/models"

// DefaultPattern matches every markdown file in the vault.
const DefaultPattern = "**/*.md"

// Provider is the set of file operations the session service needs. Paths
// are slash-separated and relative to the vault root.
type Provider interface {
	// List returns metadata for every file whose relative path matches the
	// doublestar pattern.
	List(pattern string) ([]models.FileMetadata, error)
	Read(path string) ([]byte, error)
	// Write replaces path atomically.
	Write(path string, content []byte) error
	Delete(path string) error
	Move(oldPath, newPath string) error
	Exists(path string) (bool, error)
}
