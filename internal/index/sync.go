package index

import (
	"log/slog"
	"path"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/orbit/internal/checksum"
	"github.com/starford/orbit/internal/codec"
	"github.com/starford/orbit/internal/storage"
)

// Source is where session files come from and how they are read.
type Source struct {
	Store   storage.Provider
	Codec   *codec.Codec
	Pattern string
}

func (s Source) pattern() string {
	if s.Pattern == "" {
		return storage.DefaultPattern
	}
	return s.Pattern
}

// matches reports whether a slash-separated relative path is a session file.
func (s Source) matches(rel string) bool {
	if storage.IsTemp(rel) {
		return false
	}
	ok, _ := doublestar.Match(s.pattern(), rel)
	return ok
}

// Sync brings the index in line with the vault: changed files are parsed
// and upserted, files that are gone or no longer parse are dropped.
func Sync(db *DB, src Source, logger *slog.Logger) error {
	metas, err := src.Store.List(src.pattern())
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		if checksums[m.Path] == m.Checksum {
			disk[m.Path] = struct{}{}
			continue
		}

		data, err := src.Store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, src, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		disk[m.Path] = struct{}{}
		logger.Debug("sync: indexed", slog.String("path", m.Path))
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteSession(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}

	return nil
}

// indexFile parses data as a session document and upserts it.
func indexFile(db *DB, src Source, rel string, data []byte) error {
	s, err := src.Codec.ParseFile(path.Base(rel), string(data))
	if err != nil {
		return err
	}
	return db.UpsertSession(rel, checksum.Sum(data), s)
}
