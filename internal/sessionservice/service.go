// Package sessionservice coordinates the session vault, the codec and the
// index. Every write goes to disk first and is then reflected in the index.
package sessionservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/starford/orbit/internal/apperr"
	"github.com/starford/orbit/internal/capture"
	"github.com/starford/orbit/internal/checksum"
	"github.com/starford/orbit/internal/codec"
	"github.com/starford/orbit/internal/index"
	"github.com/starford/orbit/internal/mdedit"
	"github.com/starford/orbit/internal/models"
	"github.com/starford/orbit/internal/storage"
)

// openTodoScan bounds how many todo items are inspected for open tasks.
const openTodoScan = 500

// SessionDetail is a parsed session together with where it lives.
type SessionDetail struct {
	Path     string          `json:"path"`
	Checksum string          `json:"checksum"`
	Session  *models.Session `json:"session"`
}

type cachedSession struct {
	sum     string
	session *models.Session
}

// Service implements the session operations shared by the REST and MCP
// surfaces.
type Service struct {
	store   storage.Provider
	db      index.SessionIndex
	codec   *codec.Codec
	parsed  *cache.Cache
	pattern string
	now     func() time.Time

	mu sync.Mutex
}

// New creates a session service.
func New(store storage.Provider, db index.SessionIndex, c *codec.Codec, opts ...Option) *Service {
	s := &Service{
		store:   store,
		db:      db,
		codec:   c,
		parsed:  cache.New(defaultCacheTTL, defaultCacheCleanup),
		pattern: storage.DefaultPattern,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Codec returns the codec the service reads and writes with.
func (s *Service) Codec() *codec.Codec { return s.codec }

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// Get reads and parses the session at path.
func (s *Service) Get(_ context.Context, p string) (*SessionDetail, error) {
	data, err := s.store.Read(p)
	if err != nil {
		return nil, err
	}
	return s.decode(p, data)
}

// Markdown returns the canonical document for the session at path.
func (s *Service) Markdown(ctx context.Context, p string) (string, error) {
	d, err := s.Get(ctx, p)
	if err != nil {
		return "", err
	}
	return s.codec.Render(d.Session), nil
}

// List returns indexed sessions, newest first.
func (s *Service) List(_ context.Context, q index.ListQuery) ([]index.SessionRow, int, error) {
	return s.db.ListSessions(q)
}

// Scan parses every session file in the vault, newest first. Files that do
// not parse are logged and skipped.
func (s *Service) Scan(_ context.Context) ([]SessionDetail, error) {
	metas, err := s.store.List(s.pattern)
	if err != nil {
		return nil, err
	}

	out := make([]SessionDetail, 0, len(metas))
	for _, m := range metas {
		data, err := s.store.Read(m.Path)
		if err != nil {
			slog.Warn("scan: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		d, err := s.decode(m.Path, data)
		if err != nil {
			slog.Warn("scan: skipping unreadable session", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		out = append(out, *d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Session.StartedAt.After(out[j].Session.StartedAt)
	})
	return out, nil
}

// Closest returns the session whose start is nearest to at. Ties go to the
// later session.
func (s *Service) Closest(ctx context.Context, at time.Time) (*SessionDetail, error) {
	all, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("sessionservice: closest: %w", apperr.ErrNotFound)
	}

	best := 0
	for i := 1; i < len(all); i++ {
		if distance(all[i].Session.StartedAt, at) < distance(all[best].Session.StartedAt, at) {
			best = i
		}
	}
	return &all[best], nil
}

// Create stores a new session under its canonical file name. A missing
// identity is generated and a zero start time becomes now.
func (s *Service) Create(_ context.Context, sess *models.Session) (*SessionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess = sess.Clone()
	if sess.Identity == "" {
		sess.Identity = models.NewIdentity()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = s.now()
	}

	p := s.codec.FileName(sess)
	exists, err := s.store.Exists(p)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("sessionservice: create %s: %w", p, apperr.ErrAlreadyExists)
	}
	return s.write(p, sess)
}

// Update replaces the session at path. A non-empty ifMatch must name the
// current file checksum, bare or as an entity tag. If the start time or identity changes, the file is
// renamed to the new canonical name.
func (s *Service) Update(_ context.Context, p string, sess *models.Session, ifMatch string) (*SessionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Read(p)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && !checksum.Matches(current, ifMatch) {
		return nil, fmt.Errorf("sessionservice: update %s: %w", p, apperr.ErrConflict)
	}

	sess = sess.Clone()
	if sess.Identity == "" {
		if _, ident, ok := s.codec.ParseFileName(path.Base(p)); ok {
			sess.Identity = ident
		} else {
			sess.Identity = models.NewIdentity()
		}
	}
	if sess.StartedAt.IsZero() {
		return nil, fmt.Errorf("sessionservice: update %s: start time required: %w", p, apperr.ErrInvalidInput)
	}

	target := path.Join(path.Dir(p), s.codec.FileName(sess))
	if target != p {
		if err := s.move(p, target); err != nil {
			return nil, err
		}
	}
	return s.write(target, sess)
}

// move renames the session file and drops the old path from the cache and
// the index. The caller rewrites the file at its new path.
func (s *Service) move(from, to string) error {
	if err := s.store.Move(from, to); err != nil {
		return fmt.Errorf("sessionservice: rename to %s: %w", to, err)
	}
	s.parsed.Delete(from)
	if err := s.db.DeleteSession(from); err != nil {
		slog.Warn("index update failed", slog.String("path", from), slog.String("error", err.Error()))
	}
	return nil
}

// Delete removes the session file and its index entry.
func (s *Service) Delete(_ context.Context, p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(p)
}

// Capture parses raw capture input and appends the item to the session at
// path.
func (s *Service) Capture(ctx context.Context, p, raw string) (*SessionDetail, error) {
	item, ok := capture.Parse(raw, s.now(), uuid.New())
	if !ok {
		return nil, fmt.Errorf("sessionservice: capture: empty input: %w", apperr.ErrInvalidInput)
	}
	return s.mutate(ctx, p, func(sess *models.Session) (bool, error) {
		sess.Items = append(sess.Items, item)
		return true, nil
	})
}

// ToggleTask flips the task checkbox on line of the item's content. A line
// that is not a task leaves the session untouched.
func (s *Service) ToggleTask(ctx context.Context, p string, itemID uuid.UUID, line int) (*SessionDetail, error) {
	return s.mutate(ctx, p, func(sess *models.Session) (bool, error) {
		item, ok := sess.Item(itemID)
		if !ok {
			return false, fmt.Errorf("sessionservice: item %s: %w", itemID, apperr.ErrNotFound)
		}
		toggled := mdedit.Toggle(item.Content, line)
		if toggled == item.Content {
			return false, nil
		}
		item.Content = toggled
		return true, nil
	})
}

// End sets the session's end time to now if it is still open.
func (s *Service) End(ctx context.Context, p string) (*SessionDetail, error) {
	return s.mutate(ctx, p, func(sess *models.Session) (bool, error) {
		if sess.EndedAt != nil {
			return false, nil
		}
		now := s.now()
		sess.EndedAt = &now
		return true, nil
	})
}

// Import parses a raw document in either layout and stores it in canonical
// form. name is the original file name, used for the identity when it is
// canonical; otherwise the identity is derived from the start time and
// title, so importing the same document twice targets the same file.
// Re-importing identical content is not an error.
func (s *Service) Import(_ context.Context, name string, data []byte) (*SessionDetail, error) {
	sess, err := s.codec.ParseFile(path.Base(name), string(data))
	if err != nil {
		return nil, fmt.Errorf("sessionservice: import %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.Identity == "" {
		sess.Identity = models.DerivedIdentity(sess.StartedAt, sess.DisplayTitle())
	}
	p := s.codec.FileName(sess)
	rendered := []byte(s.codec.Render(sess))

	existing, err := s.store.Read(p)
	switch {
	case err == nil && checksum.Sum(existing) == checksum.Sum(rendered):
		return s.decode(p, existing)
	case err == nil:
		return nil, fmt.Errorf("sessionservice: import %s: %w", p, apperr.ErrAlreadyExists)
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}
	return s.write(p, sess)
}

// Search runs a search over captured items.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.SearchItems(query, limit)
}

// Items lists captured items of one type, newest first.
func (s *Service) Items(_ context.Context, typ models.ItemType, limit int) ([]index.ItemRow, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("sessionservice: item type %q: %w", typ, apperr.ErrInvalidInput)
	}
	return s.db.ItemsByType(typ, limit)
}

// OpenTodos lists todo items that still have work left: either no task
// lines at all or at least one unchecked task.
func (s *Service) OpenTodos(_ context.Context, limit int) ([]index.ItemRow, error) {
	rows, err := s.db.ItemsByType(models.ItemTodo, openTodoScan)
	if err != nil {
		return nil, err
	}
	out := []index.ItemRow{}
	for _, r := range rows {
		if limit > 0 && len(out) == limit {
			break
		}
		if isOpen(r.Content) {
			out = append(out, r)
		}
	}
	return out, nil
}

func isOpen(content string) bool {
	sawTask := false
	for t := range mdedit.TaskLines(content) {
		if !t.Checked {
			return true
		}
		sawTask = true
	}
	return !sawTask
}

// mutate loads the session at path, applies fn and writes the result when
// fn reports a change.
func (s *Service) mutate(_ context.Context, p string, fn func(*models.Session) (bool, error)) (*SessionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.store.Read(p)
	if err != nil {
		return nil, err
	}
	d, err := s.decode(p, data)
	if err != nil {
		return nil, err
	}
	changed, err := fn(d.Session)
	if err != nil {
		return nil, err
	}
	if !changed {
		return d, nil
	}
	return s.write(p, d.Session)
}

// write renders sess to path, indexes it and returns the session as it now
// reads back from disk.
func (s *Service) write(p string, sess *models.Session) (*SessionDetail, error) {
	data := []byte(s.codec.Render(sess))
	if err := s.store.Write(p, data); err != nil {
		return nil, err
	}
	d, err := s.decode(p, data)
	if err != nil {
		return nil, err
	}
	if err := s.db.UpsertSession(p, d.Checksum, d.Session); err != nil {
		slog.Warn("index update failed", slog.String("path", p), slog.String("error", err.Error()))
	}
	return d, nil
}

func (s *Service) remove(p string) error {
	if err := s.store.Delete(p); err != nil {
		return err
	}
	s.parsed.Delete(p)
	return s.db.DeleteSession(p)
}

// decode parses data, reusing the cached parse when the checksum matches.
// Callers receive their own copy.
func (s *Service) decode(p string, data []byte) (*SessionDetail, error) {
	sum := checksum.Sum(data)
	if v, ok := s.parsed.Get(p); ok {
		if c := v.(cachedSession); c.sum == sum {
			return &SessionDetail{Path: p, Checksum: sum, Session: c.session.Clone()}, nil
		}
	}

	sess, err := s.codec.ParseFile(path.Base(p), string(data))
	if err != nil {
		return nil, fmt.Errorf("sessionservice: parse %s: %w", p, err)
	}
	s.parsed.SetDefault(p, cachedSession{sum: sum, session: sess})
	return &SessionDetail{Path: p, Checksum: sum, Session: sess.Clone()}, nil
}

func distance(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
