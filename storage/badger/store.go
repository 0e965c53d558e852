package badger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/cobaltash/vectorize/core"
	"github.com/cobaltash/vectorize/storage"
)

// Store implements storage.VectorStore on BadgerDB.
type Store struct {
	path     string
	inMemory bool
	dim      int
	logger   *slog.Logger

	mu sync.RWMutex
	db *badger.DB
}

var _ storage.VectorStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInMemory makes the store fully in-memory. Used by tests.
func WithInMemory() Option {
	return func(s *Store) {
		s.inMemory = true
	}
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// NewStore creates a store for vectors of the given dimension rooted at path.
// No I/O happens until Initialize.
func NewStore(path string, dimension int, opts ...Option) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", dimension)
	}

	s := &Store{
		path:   path,
		dim:    dimension,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initialize opens or creates the backing database. Idempotent: calling it on
// an already-open store is a no-op. After Close, Initialize reopens.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil && !s.db.IsClosed() {
		return nil
	}

	var opts badger.Options
	if s.inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(s.path)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("%w: %w", storage.ErrStorageUnavailable, err)
			}
			if err := os.MkdirAll(s.path, 0755); err != nil {
				return fmt.Errorf("%w: %w", storage.ErrStorageUnavailable, err)
			}
		} else if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", storage.ErrStorageUnavailable, s.path)
		}
		opts = badger.DefaultOptions(s.path)
	}

	opts.Logger = &badgerLoggerAdapter{logger: s.logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrStorageUnavailable, err)
	}

	s.db = db
	return nil
}

// Dimension returns the fixed vector length configured at construction.
func (s *Store) Dimension() int {
	return s.dim
}

// open returns the database handle or ErrStoreClosed.
func (s *Store) open() (*badger.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil || s.db.IsClosed() {
		return nil, storage.ErrStoreClosed
	}
	return s.db, nil
}

// Upsert inserts or overwrites documents by id. The whole batch is rejected
// before any write when a vector's length differs from the store dimension.
func (s *Store) Upsert(ctx context.Context, docs ...*core.VectorDocument) error {
	db, err := s.open()
	if err != nil {
		return err
	}

	for _, doc := range docs {
		if len(doc.Vector) != s.dim {
			return fmt.Errorf("%w: document %s has %d, store wants %d",
				storage.ErrDimensionMismatch, doc.Id, len(doc.Vector), s.dim)
		}
	}

	tx := db.NewTransaction(true)
	defer tx.Discard()

	for _, doc := range docs {
		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalVectorDocument(doc)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Query scans all documents and returns the top-k cosine matches.
func (s *Store) Query(ctx context.Context, vector []float32, opts storage.QueryOptions) ([]core.QueryMatch, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}

	k := opts.K
	if k <= 0 {
		k = storage.DefaultK
	}

	var matches []core.QueryMatch

	err = db.View(func(tx *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(iterOpts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.VectorDocument
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalVectorDocument(val)
				return err
			})
			if err != nil {
				return err
			}

			if !matchesFilter(doc.Metadata, opts.Filter) {
				continue
			}

			score := CosineSimilarity(vector, doc.Vector)
			if opts.ScoreThreshold != 0 && score < opts.ScoreThreshold {
				continue
			}

			matches = append(matches, core.QueryMatch{
				Id:       doc.Id,
				Score:    score,
				Metadata: doc.Metadata,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stable sort keeps storage (key) order for equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// matchesFilter reports whether metadata contains every filter key with an
// exactly equal value.
func matchesFilter(metadata, filter map[string]string) bool {
	for key, want := range filter {
		if metadata[key] != want {
			return false
		}
	}
	return true
}

// Delete removes the listed ids. Missing ids are ignored.
func (s *Store) Delete(ctx context.Context, ids ...core.ID) error {
	db, err := s.open()
	if err != nil {
		return err
	}

	tx := db.NewTransaction(true)
	defer tx.Discard()

	for _, id := range ids {
		if err := tx.Delete(makeDocumentKey(id)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Clear removes all documents.
func (s *Store) Clear(ctx context.Context) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	return db.DropPrefix([]byte(documentPrefix))
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	db, err := s.open()
	if err != nil {
		return 0, err
	}

	count := 0
	err = db.View(func(tx *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(documentPrefix)
		iterOpts.PrefetchValues = false
		iter := tx.NewIterator(iterOpts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// StorageSize reports the on-disk size (LSM + value log) in bytes.
func (s *Store) StorageSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil || s.db.IsClosed() {
		return 0
	}
	lsm, vlog := s.db.Size()
	return lsm + vlog
}

// Close closes the backing database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil || s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}
