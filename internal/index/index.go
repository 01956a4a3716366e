package index

import "github.com/starford/orbit/internal/models"

// SessionIndex is what the service and transports need from the index.
type SessionIndex interface {
	UpsertSession(path, checksum string, s *models.Session) error
	DeleteSession(path string) error
	ListSessions(q ListQuery) ([]SessionRow, int, error)
	ItemsByType(typ models.ItemType, limit int) ([]ItemRow, error)
	SearchItems(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

var _ SessionIndex = (*DB)(nil)
