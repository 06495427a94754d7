package autofill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the key/value channel between the collaborator and the automation core.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	// Subscribe delivers every later change until ctx is done.
	Subscribe(ctx context.Context) <-chan Change
}

// Change is a store write; Value is nil for a removal.
type Change struct {
	Key      string
	Value    []byte
	Revision int64
}

// DefaultStorePollInterval is how often subscribers look for writes made by other processes.
const DefaultStorePollInterval = 250 * time.Millisecond

// SQLiteStore keeps records in a single table. Removals leave a tombstone so
// that subscribers in other processes see them.
type SQLiteStore struct {
	db           *sql.DB
	PollInterval time.Duration

	mu      sync.Mutex
	waiters []chan struct{}
	closed  bool
}

const storeSchema = `CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value BLOB,
	revision INTEGER NOT NULL
)`

// OpenSQLiteStore opens (creating if needed) the store at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create store schema: %w", err)
	}
	return &SQLiteStore{db: db, PollInterval: DefaultStorePollInterval}, nil
}

func (store *SQLiteStore) Close() error {
	store.mu.Lock()
	if store.closed {
		store.mu.Unlock()
		return nil
	}
	store.closed = true
	store.wake()
	store.mu.Unlock()
	return store.db.Close()
}

func (store *SQLiteStore) isClosed() bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.closed
}

func (store *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if store.isClosed() {
		return nil, false, StoreClosedError{}
	}
	var value []byte
	err := store.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %v: %w", key, err)
	}
	if value == nil {
		return nil, false, nil
	}
	return value, true, nil
}

func (store *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return store.write(ctx, key, value)
}

func (store *SQLiteStore) Remove(ctx context.Context, key string) error {
	return store.write(ctx, key, nil)
}

func (store *SQLiteStore) write(ctx context.Context, key string, value []byte) error {
	if store.isClosed() {
		return StoreClosedError{}
	}
	_, err := store.db.ExecContext(ctx, `INSERT INTO kv (key, value, revision)
		VALUES (?, ?, (SELECT COALESCE(MAX(revision), 0) + 1 FROM kv))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, revision = excluded.revision`, key, value)
	if err != nil {
		return fmt.Errorf("write %v: %w", key, err)
	}
	store.mu.Lock()
	store.wake()
	store.mu.Unlock()
	return nil
}

// wake must be called with mu held.
func (store *SQLiteStore) wake() {
	for _, w := range store.waiters {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}

func (store *SQLiteStore) revision(ctx context.Context) (int64, error) {
	var rev int64
	err := store.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(revision), 0) FROM kv").Scan(&rev)
	return rev, err
}

func (store *SQLiteStore) changesSince(ctx context.Context, rev int64) ([]Change, error) {
	rows, err := store.db.QueryContext(ctx, "SELECT key, value, revision FROM kv WHERE revision > ? ORDER BY revision", rev)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []Change
	for rows.Next() {
		var change Change
		if err := rows.Scan(&change.Key, &change.Value, &change.Revision); err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, rows.Err()
}

// Subscribe starts from the current revision. Writes of this process are
// delivered at once; writes of other processes within PollInterval. Each
// delivery carries the latest state of a key, so writes in quick succession
// may arrive as one change.
func (store *SQLiteStore) Subscribe(ctx context.Context) <-chan Change {
	out := make(chan Change, 16)
	wakeup := make(chan struct{}, 1)

	store.mu.Lock()
	store.waiters = append(store.waiters, wakeup)
	store.mu.Unlock()

	last, err := store.revision(ctx)
	if err != nil {
		last = 0
	}

	go func() {
		defer close(out)
		defer store.unsubscribe(wakeup)

		interval := store.PollInterval
		if interval <= 0 {
			interval = DefaultStorePollInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case <-wakeup:
			}
			if store.isClosed() {
				return
			}
			changes, err := store.changesSince(ctx, last)
			if err != nil {
				continue
			}
			for _, change := range changes {
				last = change.Revision
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (store *SQLiteStore) unsubscribe(w chan struct{}) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for i, other := range store.waiters {
		if other == w {
			store.waiters = append(store.waiters[:i], store.waiters[i+1:]...)
			return
		}
	}
}
